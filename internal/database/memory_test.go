package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveleaper/liveleaper/internal/models"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetByContentID(ctx, "JC-uvbOfag4")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := &models.DownloadRecord{
		ContentID:    "JC-uvbOfag4",
		URL:          "https://www.youtube.com/watch?v=JC-uvbOfag4",
		Platform:     models.PlatformYouTube,
		Title:        "Some Video",
		FilePath:     "downloads/Some Video.mp4",
		DownloadedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.GetByContentID(ctx, "JC-uvbOfag4")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)

	// Saving again replaces in place.
	rec.Title = "Renamed"
	require.NoError(t, s.Save(ctx, rec))
	got, err = s.GetByContentID(ctx, "JC-uvbOfag4")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestMemoryStoreListPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, &models.DownloadRecord{
			ContentID:    fmt.Sprintf("id-%d", i),
			DownloadedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, total, err := s.List(ctx, models.PaginationOptions{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "id-4", records[0].ContentID)
	assert.Equal(t, "id-3", records[1].ContentID)

	records, _, err = s.List(ctx, models.PaginationOptions{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "id-0", records[0].ContentID)

	records, total, err = s.List(ctx, models.PaginationOptions{Page: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, records)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &models.DownloadRecord{ContentID: "x"}))
	require.NoError(t, s.Delete(ctx, "x"))
	assert.ErrorIs(t, s.Delete(ctx, "x"), ErrNotFound)
}
