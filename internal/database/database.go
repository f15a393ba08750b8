// Package database persists the download history used for
// deduplication and the history API.
package database

import (
	"context"
	"errors"

	"github.com/liveleaper/liveleaper/internal/models"
)

// ErrNotFound is returned when no record exists for a content ID.
var ErrNotFound = errors.New("record not found")

// HistoryStore keeps one record per downloaded content ID.
type HistoryStore interface {
	// Save inserts or replaces the record for its content ID.
	Save(ctx context.Context, rec *models.DownloadRecord) error
	GetByContentID(ctx context.Context, contentID string) (*models.DownloadRecord, error)
	// List returns a page of records, newest first, and the total count.
	List(ctx context.Context, opts models.PaginationOptions) ([]models.DownloadRecord, int, error)
	Delete(ctx context.Context, contentID string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
