// Package ytdlp shells out to the yt-dlp binary for metadata lookup
// and media download.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type Client struct {
	binPath        string
	cookiesFile    string
	embedMetadata  bool
	embedThumbnail bool
	writeSubtitles bool
}

func New(cfg *config.DownloadConfig) *Client {
	return &Client{
		binPath:        cfg.YtdlpPath,
		cookiesFile:    cfg.CookiesFile,
		embedMetadata:  cfg.EmbedMetadata,
		embedThumbnail: cfg.EmbedThumbnail,
		writeSubtitles: cfg.WriteSubtitles,
	}
}

// Available reports whether the yt-dlp binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.binPath)
	return err == nil
}

// Version returns the installed yt-dlp version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.binPath, "--version").Output()
	if err != nil {
		return "", utils.NewToolNotFoundError("yt-dlp")
	}
	return strings.TrimSpace(string(out)), nil
}

// DownloadOptions control a single download invocation.
type DownloadOptions struct {
	OutputDir   string
	Quality     string
	AudioOnly   bool
	AudioFormat string
	MaxFileSize int64
	OnProgress  func(models.Progress)
}

// infoJSON is the subset of yt-dlp's -J output we care about.
type infoJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	WebpageURL string  `json:"webpage_url"`
	Extractor  string  `json:"extractor_key"`
	IsLive     bool    `json:"is_live"`
	UploadDate string  `json:"upload_date"`
	ViewCount  int64   `json:"view_count"`
	Formats    []struct {
		FormatID   string  `json:"format_id"`
		Ext        string  `json:"ext"`
		Resolution string  `json:"resolution"`
		FPS        float64 `json:"fps"`
		VCodec     string  `json:"vcodec"`
		ACodec     string  `json:"acodec"`
		Filesize   int64   `json:"filesize"`
	} `json:"formats"`
	Entries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"entries"`
}

// GetVideoInfo fetches metadata for a single video without downloading.
func (c *Client) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	args := []string{"-J", "--no-playlist", "--no-warnings"}
	args = c.appendCookies(args)
	args = append(args, url)

	out, err := c.runJSON(ctx, args)
	if err != nil {
		return nil, err
	}

	var info infoJSON
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	vi := &models.VideoInfo{
		ID:         info.ID,
		Title:      info.Title,
		Uploader:   info.Uploader,
		Duration:   info.Duration,
		Thumbnail:  info.Thumbnail,
		Platform:   platformFromExtractor(info.Extractor),
		URL:        info.WebpageURL,
		IsLive:     info.IsLive,
		UploadDate: info.UploadDate,
		ViewCount:  info.ViewCount,
	}
	if vi.URL == "" {
		vi.URL = url
	}
	for _, f := range info.Formats {
		vi.Formats = append(vi.Formats, models.Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			FPS:        f.FPS,
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			Filesize:   f.Filesize,
		})
	}
	return vi, nil
}

// ListPlaylist returns the entries of a playlist without resolving
// each video.
func (c *Client) ListPlaylist(ctx context.Context, url string) ([]models.PlaylistEntry, error) {
	args := []string{"-J", "--flat-playlist", "--no-warnings"}
	args = c.appendCookies(args)
	args = append(args, url)

	out, err := c.runJSON(ctx, args)
	if err != nil {
		return nil, err
	}

	var info infoJSON
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp output: %w", err)
	}

	entries := make([]models.PlaylistEntry, 0, len(info.Entries))
	for _, e := range info.Entries {
		entries = append(entries, models.PlaylistEntry{
			ID:    e.ID,
			Title: e.Title,
			URL:   e.URL,
		})
	}
	return entries, nil
}

// Download fetches the media at url and returns the path of the
// resulting file.
func (c *Client) Download(ctx context.Context, url string, opts DownloadOptions) (string, error) {
	var args []string
	if c.embedMetadata {
		args = append(args, "--embed-metadata")
	}
	if c.embedThumbnail {
		args = append(args, "--embed-thumbnail")
	}
	if c.writeSubtitles && !opts.AudioOnly {
		args = append(args, "--write-subs", "--sub-langs", "all")
	}
	args = c.appendCookies(args)
	args = append(args, buildDownloadArgs(url, opts)...)

	cmd := exec.CommandContext(ctx, c.binPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", utils.NewToolNotFoundError("yt-dlp")
	}

	var dest string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if d := parseDestination(line); d != "" {
			dest = d
		}
		if p, ok := parseProgressLine(line); ok && opts.OnProgress != nil {
			opts.OnProgress(p)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		utils.LogDebug(ctx, "yt-dlp failed", utils.Fields{"stderr": stderr.String()})
		return "", fmt.Errorf("yt-dlp: %w: %s", err, firstLine(stderr.String()))
	}

	if dest == "" {
		return "", fmt.Errorf("yt-dlp finished without reporting an output file")
	}
	return dest, nil
}

func (c *Client) runJSON(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, lookErr := exec.LookPath(c.binPath); lookErr != nil {
			return nil, utils.NewToolNotFoundError("yt-dlp")
		}
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, firstLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (c *Client) appendCookies(args []string) []string {
	if c.cookiesFile != "" {
		return append(args, "--cookies", c.cookiesFile)
	}
	return args
}

func buildDownloadArgs(url string, opts DownloadOptions) []string {
	args := []string{
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"-o", filepath.Join(opts.OutputDir, "%(title)s.%(ext)s"),
	}

	if opts.AudioOnly {
		format := opts.AudioFormat
		if format == "" {
			format = "mp3"
		}
		args = append(args, "-x", "--audio-format", format, "--audio-quality", "0")
	} else {
		args = append(args, "-f", formatSelector(opts.Quality))
	}

	if opts.MaxFileSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(opts.MaxFileSize, 10))
	}

	return append(args, url)
}

// formatSelector maps a quality name to a yt-dlp format expression.
func formatSelector(quality string) string {
	switch quality {
	case "", "best":
		return "bestvideo*+bestaudio/best"
	case "worst":
		return "worstvideo*+worstaudio/worst"
	}
	if h, ok := parseHeight(quality); ok {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	}
	// Pass unrecognized selectors through for power users.
	return quality
}

func parseHeight(quality string) (int, bool) {
	q := strings.TrimSuffix(strings.ToLower(quality), "p")
	h, err := strconv.Atoi(q)
	if err != nil || h <= 0 {
		return 0, false
	}
	return h, true
}

var (
	progressPattern = regexp.MustCompile(`^\[download\]\s+([\d.]+)%\s+of\s+~?\s*\S+(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)
	destPatterns    = []*regexp.Regexp{
		regexp.MustCompile(`^\[download\] Destination: (.+)$`),
		regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`),
		regexp.MustCompile(`^\[ExtractAudio\] Destination: (.+)$`),
		regexp.MustCompile(`^\[download\] (.+) has already been downloaded$`),
	}
)

// parseProgressLine reads yt-dlp's --newline progress output, e.g.
// "[download]  42.3% of 10.55MiB at 1.20MiB/s ETA 00:15".
func parseProgressLine(line string) (models.Progress, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return models.Progress{}, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.Progress{}, false
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p := models.Progress{Percent: percent, Speed: m[2], ETA: m[3]}
	if p.Speed == "Unknown" {
		p.Speed = ""
	}
	return p, true
}

// parseDestination extracts the output path from yt-dlp status lines.
// Later matches win, so a merge or audio extraction step overrides the
// raw stream destination.
func parseDestination(line string) string {
	for _, p := range destPatterns {
		if m := p.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func platformFromExtractor(extractor string) models.Platform {
	switch {
	case strings.HasPrefix(strings.ToLower(extractor), "youtube"):
		return models.PlatformYouTube
	case strings.HasPrefix(strings.ToLower(extractor), "niconico"):
		return models.PlatformNiconico
	default:
		return models.Platform(strings.ToLower(extractor))
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
