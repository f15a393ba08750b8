package downloader

import (
	"context"
	"fmt"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/youtube"
	"github.com/liveleaper/liveleaper/internal/services/ytdlp"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// ytdlpEngine adapts the yt-dlp wrapper to the Engine interface.
type ytdlpEngine struct {
	client *ytdlp.Client
	cfg    *config.DownloadConfig
}

func (e *ytdlpEngine) Name() string { return "yt-dlp" }

func (e *ytdlpEngine) Download(ctx context.Context, url string, opts Options, onProgress func(models.Progress)) (string, error) {
	return e.client.Download(ctx, url, ytdlp.DownloadOptions{
		OutputDir:   opts.OutputDir,
		Quality:     opts.Quality,
		AudioOnly:   opts.AudioOnly,
		AudioFormat: opts.AudioFormat,
		MaxFileSize: e.cfg.MaxFileSize,
		OnProgress:  onProgress,
	})
}

func (e *ytdlpEngine) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	return e.client.GetVideoInfo(ctx, url)
}

func (e *ytdlpEngine) ListPlaylist(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	return e.client.ListPlaylist(ctx, url)
}

// nativeEngine downloads YouTube videos without yt-dlp. Audio
// extraction and non-YouTube platforms are not supported.
type nativeEngine struct {
	client *youtube.Client
}

func (e *nativeEngine) Name() string { return "native" }

func (e *nativeEngine) Download(ctx context.Context, url string, opts Options, onProgress func(models.Progress)) (string, error) {
	if opts.AudioOnly {
		return "", fmt.Errorf("audio extraction requires yt-dlp")
	}
	if _, err := youtube.ParseVideoID(url); err != nil {
		return "", utils.NewUnsupportedURLError(url)
	}
	return e.client.DownloadVideo(ctx, url, opts.Quality, opts.OutputDir, onProgress)
}

func (e *nativeEngine) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	if _, err := youtube.ParseVideoID(url); err != nil {
		return nil, utils.NewUnsupportedURLError(url)
	}
	return e.client.GetVideoInfo(ctx, url)
}

func (e *nativeEngine) ListPlaylist(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	return nil, fmt.Errorf("playlist expansion requires yt-dlp")
}

// SelectEngine picks the download engine. The default "auto" prefers
// yt-dlp and falls back to the native YouTube client when the binary
// is missing; "ytdlp" and "native" force one engine.
func SelectEngine(ctx context.Context, cfg *config.DownloadConfig, ffmpegPath string) Engine {
	if cfg.Engine == "native" {
		utils.LogInfo(ctx, "using native YouTube engine")
		return &nativeEngine{client: youtube.NewClient(ffmpegPath)}
	}

	client := ytdlp.New(cfg)
	if client.Available() {
		if version, err := client.Version(ctx); err == nil {
			utils.LogInfo(ctx, "using yt-dlp engine", utils.Fields{"version": version})
		}
		return &ytdlpEngine{client: client, cfg: cfg}
	}
	if cfg.Engine == "ytdlp" {
		// Forced engine with a missing binary. Keep it and let every
		// download report the tool error instead of silently changing
		// behavior.
		utils.LogWarn(ctx, "yt-dlp engine forced but binary not found")
		return &ytdlpEngine{client: client, cfg: cfg}
	}

	utils.LogWarn(ctx, "yt-dlp not found, falling back to native YouTube engine")
	return &nativeEngine{client: youtube.NewClient(ffmpegPath)}
}
