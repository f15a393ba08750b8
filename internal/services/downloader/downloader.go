// Package downloader orchestrates the download pipeline: URL
// normalization, deduplication against history, task scheduling,
// engine invocation with retries, and archival of results.
package downloader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/database"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/normalizer"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// Options select what to fetch for one URL. ConvertTo names a target
// container the finished download is transcoded into.
type Options struct {
	AudioOnly   bool
	AudioFormat string
	Quality     string
	OutputDir   string
	ConvertTo   string
}

// Engine fetches a single video and returns the path of the produced
// file.
type Engine interface {
	Name() string
	Download(ctx context.Context, url string, opts Options, onProgress func(models.Progress)) (string, error)
	GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
	ListPlaylist(ctx context.Context, url string) ([]models.PlaylistEntry, error)
}

// Archiver is the subset of the storage backend the downloader needs.
type Archiver interface {
	Location() string
	StoreFile(ctx context.Context, key string, path string, contentType string) error
}

// Transcoder converts a finished download into another container.
type Transcoder interface {
	Convert(ctx context.Context, input string, opts converter.Options) (string, error)
}

type Downloader struct {
	cfg        *config.DownloadConfig
	engine     Engine
	history    database.HistoryStore
	archive    Archiver
	transcoder Transcoder
	manager    *tasks.Manager
}

func NewDownloader(cfg *config.DownloadConfig, engine Engine, history database.HistoryStore, archive Archiver, transcoder Transcoder, manager *tasks.Manager) *Downloader {
	return &Downloader{
		cfg:        cfg,
		engine:     engine,
		history:    history,
		archive:    archive,
		transcoder: transcoder,
		manager:    manager,
	}
}

// Tasks exposes the task manager for status queries.
func (d *Downloader) Tasks() *tasks.Manager {
	return d.manager
}

// History exposes the download history store.
func (d *Downloader) History() database.HistoryStore {
	return d.history
}

// GetVideoInfo resolves metadata for a normalized URL.
func (d *Downloader) GetVideoInfo(ctx context.Context, rawURL string) (*models.VideoInfo, error) {
	norm, err := normalizer.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	if norm.IsPlaylist {
		return nil, utils.NewValidationError("playlist URLs have no single video info", map[string]interface{}{
			"url": norm.URL,
		})
	}
	return d.engine.GetVideoInfo(ctx, norm.URL)
}

// Enqueue normalizes a URL and schedules its download. Playlists are
// expanded and every entry is scheduled individually. URLs whose
// content was already downloaded, and whose file still exists, are
// rejected with an ALREADY_DOWNLOADED error.
func (d *Downloader) Enqueue(ctx context.Context, rawURL string, opts Options) ([]*models.Task, error) {
	norm, err := normalizer.Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	if norm.IsPlaylist {
		return d.enqueuePlaylist(ctx, norm, opts)
	}

	task, err := d.enqueueOne(ctx, norm, opts)
	if err != nil {
		return nil, err
	}
	return []*models.Task{task}, nil
}

// EnqueueBatch schedules many URLs at once. Invalid and duplicate
// entries are collected into skipped instead of failing the batch.
func (d *Downloader) EnqueueBatch(ctx context.Context, rawURLs []string, opts Options) (scheduled []*models.Task, skipped []string) {
	results, invalid := normalizer.NormalizeAll(rawURLs)
	skipped = append(skipped, invalid...)

	for _, norm := range results {
		if norm.IsPlaylist {
			ts, err := d.enqueuePlaylist(ctx, norm, opts)
			if err != nil {
				skipped = append(skipped, norm.URL)
				continue
			}
			scheduled = append(scheduled, ts...)
			continue
		}
		task, err := d.enqueueOne(ctx, norm, opts)
		if err != nil {
			skipped = append(skipped, norm.URL)
			continue
		}
		scheduled = append(scheduled, task)
	}
	return scheduled, skipped
}

func (d *Downloader) enqueuePlaylist(ctx context.Context, norm *normalizer.Result, opts Options) ([]*models.Task, error) {
	entries, err := d.engine.ListPlaylist(ctx, norm.URL)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, utils.NewVideoNotFoundError(norm.URL)
	}

	utils.LogInfo(ctx, "expanding playlist", utils.Fields{
		"url":     norm.URL,
		"entries": len(entries),
	})

	var scheduled []*models.Task
	for _, entry := range entries {
		entryNorm, err := normalizer.Normalize(entry.URL)
		if err != nil {
			utils.LogWarn(ctx, "skipping playlist entry", utils.Fields{"url": entry.URL})
			continue
		}
		task, err := d.enqueueOne(ctx, entryNorm, opts)
		if err != nil {
			utils.LogWarn(ctx, "skipping playlist entry", utils.Fields{
				"url":   entry.URL,
				"error": err.Error(),
			})
			continue
		}
		scheduled = append(scheduled, task)
	}
	if len(scheduled) == 0 {
		return nil, utils.NewDownloadError(fmt.Errorf("no downloadable entries in playlist %s", norm.URL))
	}
	return scheduled, nil
}

func (d *Downloader) enqueueOne(ctx context.Context, norm *normalizer.Result, opts Options) (*models.Task, error) {
	if rec, err := d.history.GetByContentID(ctx, contentKey(norm, opts)); err == nil {
		if _, statErr := os.Stat(rec.FilePath); statErr == nil {
			return nil, utils.NewAlreadyDownloadedError(norm.URL, rec.FilePath)
		}
		// The file is gone, history is stale. Download again.
	}

	return d.manager.Submit(ctx, models.TaskTypeDownload, norm.URL, "", func(taskCtx context.Context, report func(models.Progress)) (string, error) {
		return d.runDownload(taskCtx, norm, opts, report)
	})
}

// runDownload executes one download with retries and records the
// result.
func (d *Downloader) runDownload(ctx context.Context, norm *normalizer.Result, opts Options, report func(models.Progress)) (string, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = d.cfg.OutputDir
	}
	if opts.Quality == "" {
		opts.Quality = d.cfg.VideoQuality
	}
	if opts.AudioOnly && opts.AudioFormat == "" {
		opts.AudioFormat = d.cfg.AudioFormat
	}
	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.DownloadTimeout)
	defer cancel()

	var output string
	var err error
	backoff := time.Second

	for attempt := 0; attempt <= d.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			utils.LogWarn(ctx, "retrying download", utils.Fields{
				"url":     norm.URL,
				"attempt": attempt,
				"backoff": backoff.String(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		output, err = d.engine.Download(ctx, norm.URL, opts, report)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", utils.NewDownloadError(err)
	}

	if opts.ConvertTo != "" {
		if output, err = d.convertDownload(ctx, output, opts, report); err != nil {
			return "", err
		}
	}

	d.recordDownload(ctx, norm, opts, output)
	return output, nil
}

// convertDownload transcodes a finished download and removes the
// intermediate file.
func (d *Downloader) convertDownload(ctx context.Context, output string, opts Options, report func(models.Progress)) (string, error) {
	if d.transcoder == nil {
		return "", utils.NewConversionError(fmt.Errorf("no converter configured for format %q", opts.ConvertTo))
	}

	converted, err := d.transcoder.Convert(ctx, output, converter.Options{
		OutputDir:    opts.OutputDir,
		OutputFormat: opts.ConvertTo,
		OnProgress:   report,
	})
	if err != nil {
		return "", utils.NewConversionError(err)
	}

	if removeErr := os.Remove(output); removeErr != nil {
		utils.LogWarn(ctx, "failed to remove intermediate download", utils.Fields{
			"path":  output,
			"error": removeErr.Error(),
		})
	}
	return converted, nil
}

// recordDownload persists history and archives the file. Neither
// failure fails the download itself.
func (d *Downloader) recordDownload(ctx context.Context, norm *normalizer.Result, opts Options, output string) {
	var size int64
	if info, err := os.Stat(output); err == nil {
		size = info.Size()
	}

	fileName := filepath.Base(output)
	title := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	rec := &models.DownloadRecord{
		ContentID:    contentKey(norm, opts),
		URL:          norm.URL,
		Platform:     norm.Platform,
		Title:        title,
		FileName:     fileName,
		FilePath:     output,
		FileSize:     size,
		AudioOnly:    opts.AudioOnly,
		DownloadedAt: time.Now().UTC(),
	}

	if d.archive != nil {
		key := path.Join(string(norm.Platform), norm.ContentID, fileName)
		if err := d.archive.StoreFile(ctx, key, output, contentTypeFor(output)); err != nil {
			utils.LogWarn(ctx, "archive upload failed", utils.Fields{
				"key":   key,
				"error": err.Error(),
			})
		} else {
			rec.StorageKey = key
		}
	}

	if err := d.history.Save(ctx, rec); err != nil {
		utils.LogWarn(ctx, "failed to save download history", utils.Fields{
			"content_id": rec.ContentID,
			"error":      err.Error(),
		})
	}
}

// contentKey separates audio, video and converted downloads of the
// same content in history.
func contentKey(norm *normalizer.Result, opts Options) string {
	key := fmt.Sprintf("%s_%s", norm.Platform, norm.ContentID)
	if opts.AudioOnly {
		key += "_audio"
	}
	if opts.ConvertTo != "" {
		key += "_" + opts.ConvertTo
	}
	return key
}

func contentTypeFor(p string) string {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
