package database

import (
	"context"
	"sort"
	"sync"

	"github.com/liveleaper/liveleaper/internal/models"
)

// MemoryStore is the in-process history store used when MongoDB is not
// configured. History is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.DownloadRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.DownloadRecord),
	}
}

func (s *MemoryStore) Save(ctx context.Context, rec *models.DownloadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ContentID] = *rec
	return nil
}

func (s *MemoryStore) GetByContentID(ctx context.Context, contentID string) (*models.DownloadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[contentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) List(ctx context.Context, opts models.PaginationOptions) ([]models.DownloadRecord, int, error) {
	s.mu.RLock()
	all := make([]models.DownloadRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].DownloadedAt.After(all[j].DownloadedAt)
	})

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	start := (page - 1) * limit
	if start >= len(all) {
		return []models.DownloadRecord{}, len(all), nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (s *MemoryStore) Delete(ctx context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[contentID]; !ok {
		return ErrNotFound
	}
	delete(s.records, contentID)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
