package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/database"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/tasks"
)

// fakeEngine writes a file per download and can be told to fail the
// first N attempts.
type fakeEngine struct {
	dir       string
	failFirst int32
	attempts  int32
	playlist  []models.PlaylistEntry
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Download(ctx context.Context, url string, opts Options, onProgress func(models.Progress)) (string, error) {
	n := atomic.AddInt32(&f.attempts, 1)
	if n <= atomic.LoadInt32(&f.failFirst) {
		return "", errors.New("transient network error")
	}
	if onProgress != nil {
		onProgress(models.Progress{Percent: 100})
	}
	out := filepath.Join(opts.OutputDir, "video.mp4")
	if err := os.WriteFile(out, []byte("media"), 0644); err != nil {
		return "", err
	}
	return out, nil
}

func (f *fakeEngine) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	return &models.VideoInfo{ID: "JC-uvbOfag4", Title: "Some Video", URL: url, Platform: models.PlatformYouTube}, nil
}

func (f *fakeEngine) ListPlaylist(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	if f.playlist == nil {
		return nil, errors.New("not a playlist")
	}
	return f.playlist, nil
}

// fakeTranscoder writes a sibling file with the requested extension.
type fakeTranscoder struct {
	calls int32
	fail  bool
}

func (f *fakeTranscoder) Convert(ctx context.Context, input string, opts converter.Options) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fail {
		return "", errors.New("encoder rejected the stream")
	}
	out := strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.OutputFormat
	if err := os.WriteFile(out, []byte("converted"), 0644); err != nil {
		return "", err
	}
	return out, nil
}

func newTestDownloader(t *testing.T, engine Engine) (*Downloader, *tasks.Manager) {
	t.Helper()
	return newTestDownloaderWith(t, engine, nil)
}

func newTestDownloaderWith(t *testing.T, engine Engine, tr Transcoder) (*Downloader, *tasks.Manager) {
	t.Helper()
	manager := tasks.NewManager(2)
	cfg := &config.DownloadConfig{
		OutputDir:              t.TempDir(),
		VideoQuality:           "best",
		AudioFormat:            "mp3",
		MaxConcurrentDownloads: 2,
		DownloadTimeout:        30 * time.Second,
		RetryCount:             3,
	}
	return NewDownloader(cfg, engine, database.NewMemoryStore(), nil, tr, manager), manager
}

func waitCompleted(t *testing.T, m *tasks.Manager, id string) *models.Task {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	task, err := m.Wait(ctx, id)
	require.NoError(t, err)
	return task
}

func TestEnqueueDownloads(t *testing.T) {
	engine := &fakeEngine{}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.FileExists(t, task.OutputFile)

	// The record lands in history under the canonical content key.
	rec, err := d.History().GetByContentID(context.Background(), "youtube_JC-uvbOfag4")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=JC-uvbOfag4", rec.URL)
	assert.Equal(t, int64(5), rec.FileSize)
}

func TestEnqueueRetriesTransientFailures(t *testing.T) {
	engine := &fakeEngine{failFirst: 2}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.EqualValues(t, 3, atomic.LoadInt32(&engine.attempts))
}

func TestEnqueueExhaustsRetries(t *testing.T) {
	engine := &fakeEngine{failFirst: 100}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "DOWNLOAD_FAILED")
	// Initial attempt plus RetryCount retries.
	assert.EqualValues(t, 4, atomic.LoadInt32(&engine.attempts))
}

func TestEnqueueRejectsDuplicates(t *testing.T) {
	engine := &fakeEngine{}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)
	waitCompleted(t, m, scheduled[0].ID)

	_, err = d.Enqueue(context.Background(), "https://www.youtube.com/watch?v=JC-uvbOfag4&t=10s", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALREADY_DOWNLOADED")

	// Audio download of the same content is a separate key.
	scheduled, err = d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{AudioOnly: true})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	waitCompleted(t, m, scheduled[0].ID)
}

func TestEnqueueRedownloadsWhenFileMissing(t *testing.T) {
	engine := &fakeEngine{}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)
	task := waitCompleted(t, m, scheduled[0].ID)

	require.NoError(t, os.Remove(task.OutputFile))

	scheduled, err = d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	waitCompleted(t, m, scheduled[0].ID)
}

func TestEnqueueBatch(t *testing.T) {
	engine := &fakeEngine{}
	d, m := newTestDownloader(t, engine)

	scheduled, skipped := d.EnqueueBatch(context.Background(), []string{
		"https://youtu.be/JC-uvbOfag4",
		"https://youtu.be/JC-uvbOfag4?si=dup",
		"not-a-url",
	}, Options{})

	// The second URL collapses into the first during normalization.
	require.Len(t, scheduled, 1)
	assert.Equal(t, []string{"not-a-url"}, skipped)

	waitCompleted(t, m, scheduled[0].ID)
}

func TestEnqueuePlaylist(t *testing.T) {
	engine := &fakeEngine{playlist: []models.PlaylistEntry{
		{ID: "aaaaaaaaaaa", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa"},
		{ID: "bbbbbbbbbbb", URL: "https://www.youtube.com/watch?v=bbbbbbbbbbb"},
	}}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://www.youtube.com/playlist?list=PLxTest", Options{})
	require.NoError(t, err)
	require.Len(t, scheduled, 2)

	for _, task := range scheduled {
		final := waitCompleted(t, m, task.ID)
		assert.Equal(t, models.TaskStatusCompleted, final.Status)
	}
}

func TestEnqueueConvertsAfterDownload(t *testing.T) {
	tr := &fakeTranscoder{}
	d, m := newTestDownloaderWith(t, &fakeEngine{}, tr)

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{ConvertTo: "mkv"})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, ".mkv", filepath.Ext(task.OutputFile))
	assert.FileExists(t, task.OutputFile)
	assert.EqualValues(t, 1, atomic.LoadInt32(&tr.calls))

	// The intermediate download is gone, and history points at the
	// converted file under a format-specific key.
	assert.NoFileExists(t, filepath.Join(filepath.Dir(task.OutputFile), "video.mp4"))
	rec, err := d.History().GetByContentID(context.Background(), "youtube_JC-uvbOfag4_mkv")
	require.NoError(t, err)
	assert.Equal(t, task.OutputFile, rec.FilePath)
}

func TestEnqueueConvertFailureFailsTask(t *testing.T) {
	d, m := newTestDownloaderWith(t, &fakeEngine{}, &fakeTranscoder{fail: true})

	scheduled, err := d.Enqueue(context.Background(), "https://youtu.be/JC-uvbOfag4", Options{ConvertTo: "mkv"})
	require.NoError(t, err)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Contains(t, *task.ErrorMessage, "CONVERSION_FAILED")
}

func TestEnqueueUnknownHostPassesThrough(t *testing.T) {
	engine := &fakeEngine{}
	d, m := newTestDownloader(t, engine)

	scheduled, err := d.Enqueue(context.Background(), "https://vimeo.com/12345", Options{})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, "https://vimeo.com/12345", scheduled[0].URL)

	task := waitCompleted(t, m, scheduled[0].ID)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestGetVideoInfo(t *testing.T) {
	d, _ := newTestDownloader(t, &fakeEngine{})

	info, err := d.GetVideoInfo(context.Background(), "https://youtu.be/JC-uvbOfag4")
	require.NoError(t, err)
	assert.Equal(t, "Some Video", info.Title)

	_, err = d.GetVideoInfo(context.Background(), "https://www.youtube.com/playlist?list=PLxTest")
	assert.Error(t, err)
}
