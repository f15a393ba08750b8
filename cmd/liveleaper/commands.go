package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/services/auth"
	"github.com/liveleaper/liveleaper/internal/services/converter"
	"github.com/liveleaper/liveleaper/internal/services/downloader"
	"github.com/liveleaper/liveleaper/internal/services/normalizer"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type directOptions struct {
	audioOnly   bool
	audioFormat string
	outputDir   string
	infoOnly    bool
}

// runDirect handles bare URL arguments: `liveleaper URL...`.
func runDirect(ctx context.Context, cfg *config.Config, urls []string, opts directOptions) error {
	if opts.infoOnly {
		for _, u := range urls {
			if err := runInfo(ctx, cfg, []string{u}); err != nil {
				return err
			}
		}
		return nil
	}

	return downloadURLs(ctx, cfg, urls, downloader.Options{
		AudioOnly:   opts.audioOnly,
		AudioFormat: opts.audioFormat,
		OutputDir:   opts.outputDir,
	})
}

func runDownload(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	outputDir := fs.String("o", "", "output directory")
	quality := fs.String("f", "", "video quality (best, worst, 720p, 1080p or a yt-dlp format selector)")
	audioOnly := fs.Bool("audio-only", false, "download audio only")
	audioFormat := fs.String("audio-format", "", "audio format (mp3, aac, wav, flac, ogg, opus)")
	convertTo := fs.String("convert", "", "convert the finished download into this container")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: liveleaper download [flags] URL")
	}

	return downloadURLs(ctx, cfg, []string{fs.Arg(0)}, downloader.Options{
		AudioOnly:   *audioOnly,
		AudioFormat: *audioFormat,
		Quality:     *quality,
		OutputDir:   *outputDir,
		ConvertTo:   *convertTo,
	})
}

func runBatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	outputDir := fs.String("o", "", "output directory")
	audioOnly := fs.Bool("audio-only", false, "download audio only")
	convertTo := fs.String("convert", "", "convert finished downloads into this container")
	maxWorkers := fs.Int("max-workers", 0, "override concurrent download limit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: liveleaper batch [flags] FILE")
	}

	urls, err := normalizer.ReadURLFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("%s contains no URLs", fs.Arg(0))
	}

	if *maxWorkers > 0 {
		cfg.Download.MaxConcurrentDownloads = *maxWorkers
	}

	return downloadURLs(ctx, cfg, urls, downloader.Options{
		AudioOnly: *audioOnly,
		OutputDir: *outputDir,
		ConvertTo: *convertTo,
	})
}

func downloadURLs(ctx context.Context, cfg *config.Config, urls []string, opts downloader.Options) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := shutdownContext()
		defer cancel()
		a.close(closeCtx)
	}()

	scheduled, skipped := a.downloader.EnqueueBatch(ctx, urls, opts)
	for _, s := range skipped {
		sayf("skipped", s)
	}
	if len(scheduled) == 0 {
		return fmt.Errorf("nothing to download")
	}
	sayf("queued", len(scheduled))

	return waitTasks(ctx, a, scheduled, "download_done", "download_fail")
}

func runConvert(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	videoCodec := fs.String("video-codec", "", "video codec (h264, hevc, vp9, av1, copy)")
	audioCodec := fs.String("audio-codec", "", "audio codec")
	audioBitrate := fs.String("audio-bitrate", "", "audio bitrate, for example 192k")
	crf := fs.Int("crf", 0, "constant rate factor (0-51)")
	preset := fs.String("preset", "", "encoder preset")
	resolution := fs.String("resolution", "", "scale video, for example 1280x720 or 720")
	sampleRate := fs.Int("sample-rate", 0, "audio sample rate in Hz")
	channels := fs.Int("channels", 0, "audio channel count")
	noHardware := fs.Bool("no-hardware", false, "disable hardware encoders")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: liveleaper convert [flags] INPUT OUTPUT")
	}
	input, out := fs.Arg(0), fs.Arg(1)

	// OUTPUT is either a target path, from which the format and
	// directory are taken, or just a format name like "mp3".
	format := out
	outputDir := ""
	if ext := filepath.Ext(out); ext != "" {
		format = strings.TrimPrefix(ext, ".")
		if dir := filepath.Dir(out); dir != "." {
			outputDir = dir
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *noHardware {
		cfg.Convert.HardwareAccel = false
	}

	conv := converter.New(&cfg.Convert)
	sayf("converting", input)

	output, err := conv.Convert(ctx, input, converter.Options{
		OutputDir:    outputDir,
		OutputFormat: format,
		VideoCodec:   *videoCodec,
		AudioCodec:   *audioCodec,
		AudioBitrate: *audioBitrate,
		CRF:          *crf,
		Preset:       *preset,
		Resolution:   *resolution,
		SampleRate:   *sampleRate,
		Channels:     *channels,
		OnProgress: func(p models.Progress) {
			fmt.Printf(tr("progress"), p.Percent, p.Speed, p.ETA)
		},
	})
	fmt.Println()
	if err != nil {
		sayf("convert_fail", err.Error())
		return err
	}

	sayf("convert_done", output)
	return nil
}

func runInfo(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: liveleaper info URL")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := shutdownContext()
		defer cancel()
		a.close(closeCtx)
	}()

	fmt.Println(tr("fetching_info"))
	info, err := a.downloader.GetVideoInfo(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Title:     %s\n", info.Title)
	fmt.Printf("Platform:  %s\n", info.Platform)
	fmt.Printf("ID:        %s\n", info.ID)
	if info.Uploader != "" {
		fmt.Printf("Uploader:  %s\n", info.Uploader)
	}
	if info.Duration > 0 {
		fmt.Printf("Duration:  %s\n", utils.FormatDuration(info.Duration))
	}
	if info.ViewCount > 0 {
		fmt.Printf("Views:     %d\n", info.ViewCount)
	}
	if info.UploadDate != "" {
		fmt.Printf("Uploaded:  %s\n", info.UploadDate)
	}
	if info.IsLive {
		fmt.Println("Live:      yes")
	}
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	name := fs.String("name", "cli", "token subject")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.API.JWTSecret == "" {
		return fmt.Errorf("%s", tr("no_jwt_secret"))
	}

	token, err := auth.NewJWTService(cfg.API.JWTSecret).Issue(*name, *ttl)
	if err != nil {
		return err
	}

	sayf("token_issued", ttl.String())
	fmt.Println(token)
	return nil
}

// waitTasks blocks until every scheduled task reaches a terminal state,
// printing progress for the one currently running.
func waitTasks(ctx context.Context, a *app, scheduled []*models.Task, doneKey, failKey string) error {
	failed := 0
	for _, t := range scheduled {
		sayf("downloading", t.URL)
		final := pollTask(ctx, a, t.ID)
		fmt.Println()

		switch final.Status {
		case models.TaskStatusCompleted:
			sayf(doneKey, final.OutputFile)
		case models.TaskStatusCancelled:
			fmt.Println(tr("cancelled"))
		default:
			reason := string(final.Status)
			if final.ErrorMessage != nil {
				reason = *final.ErrorMessage
			}
			sayf(failKey, reason)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(scheduled))
	}
	return nil
}

func pollTask(ctx context.Context, a *app, id string) *models.Task {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		t, err := a.manager.Get(id)
		if err != nil {
			return &models.Task{ID: id, Status: models.TaskStatusFailed}
		}
		if t.Status.IsTerminal() {
			return t
		}
		if t.Status == models.TaskStatusRunning {
			fmt.Printf(tr("progress"), t.Progress, t.Speed, t.ETA)
		}

		select {
		case <-ctx.Done():
			// Interrupt: ask the manager to cancel, then keep polling
			// until the task settles.
			_ = a.manager.Cancel(id)
			t, err := a.manager.Wait(context.Background(), id)
			if err != nil {
				return &models.Task{ID: id, Status: models.TaskStatusCancelled}
			}
			return t
		case <-ticker.C:
		}
	}
}
