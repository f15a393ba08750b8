// Package main is the liveleaper command: a downloader and converter
// for YouTube and Niconico video and audio, backed by yt-dlp and ffmpeg.
// @title LiveLeaper API
// @version 1.0
// @description A media download and conversion service for YouTube and Niconico, backed by yt-dlp and ffmpeg.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key authentication

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/utils"
)

const version = "1.0.0"

func main() {
	globals := flag.NewFlagSet("liveleaper", flag.ExitOnError)
	verbose := globals.Bool("verbose", false, "enable debug logging")
	configPath := globals.String("config", "", "path to config file")
	logFile := globals.String("log-file", "", "duplicate logs into this file")
	lang := globals.String("lang", "en", "CLI message language (en or ja)")
	audioOnly := globals.Bool("audio", false, "bare URL mode: download audio only")
	audioExt := globals.String("ext", "", "bare URL mode: audio format (mp3, aac, wav, flac, ogg, opus)")
	outputDir := globals.String("output", "", "bare URL mode: output directory")
	infoOnly := globals.Bool("info", false, "bare URL mode: print metadata instead of downloading")
	globals.Usage = usage

	if err := globals.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	setLanguage(*lang)
	if *verbose {
		utils.SetVerbose()
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		utils.SetLogFile(f)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	args := globals.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()

	var cmdErr error
	switch args[0] {
	case "download":
		cmdErr = runDownload(ctx, cfg, args[1:])
	case "batch":
		cmdErr = runBatch(ctx, cfg, args[1:])
	case "convert":
		cmdErr = runConvert(ctx, cfg, args[1:])
	case "serve":
		cmdErr = runServe(ctx, cfg, args[1:])
	case "info":
		cmdErr = runInfo(ctx, cfg, args[1:])
	case "token":
		cmdErr = runToken(cfg, args[1:])
	case "version":
		fmt.Println("liveleaper " + version)
	default:
		if strings.Contains(args[0], "://") {
			urls, err := collectURLs(globals, args)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			setLanguage(*lang)
			if *verbose {
				utils.SetVerbose()
			}
			cmdErr = runDirect(ctx, cfg, urls, directOptions{
				audioOnly:   *audioOnly,
				audioFormat: *audioExt,
				outputDir:   *outputDir,
				infoOnly:    *infoOnly,
			})
			break
		}
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmdErr)
		os.Exit(1)
	}
}

// collectURLs re-parses the argument list so bare mode accepts flags
// before and after the URLs. flag.Parse stops at the first positional,
// which would otherwise silently drop trailing flags.
func collectURLs(fs *flag.FlagSet, args []string) ([]string, error) {
	var urls []string
	for len(args) > 0 {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		if !strings.Contains(args[0], "://") {
			return nil, fmt.Errorf("unexpected argument %q", args[0])
		}
		urls = append(urls, args[0])
		args = args[1:]
	}
	return urls, nil
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: liveleaper [global flags] <command> [command flags]
       liveleaper [global flags] URL...

Commands:
  download URL    download one video or audio track
  batch FILE      download every URL listed in FILE
  convert IN OUT  convert a local media file
  info URL        print video metadata
  serve           run the REST API server
  token           mint an API bearer token
  version         print the version

Bare URLs download directly; add --audio, --ext, --output or --info,
before or after the URLs. --config must precede the first URL.

Global flags:
  --verbose        enable debug logging
  --config FILE    path to config file
  --log-file FILE  duplicate logs into this file
  --lang CODE      CLI message language (en or ja)
`)
}

// shutdownContext returns a context for draining work at exit.
func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
