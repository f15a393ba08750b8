// Package converter wraps ffmpeg for media conversion and audio
// extraction, with hardware encoder selection when available.
package converter

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type Converter struct {
	cfg *config.ConvertConfig
	hw  encoderSet
}

func New(cfg *config.ConvertConfig) *Converter {
	return &Converter{cfg: cfg}
}

// Available reports whether the ffmpeg binary can be found.
func (c *Converter) Available() bool {
	_, err := exec.LookPath(c.cfg.FfmpegPath)
	return err == nil
}

// Version returns the first line of `ffmpeg -version`.
func (c *Converter) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.cfg.FfmpegPath, "-version").Output()
	if err != nil {
		return "", utils.NewToolNotFoundError("ffmpeg")
	}
	line := strings.SplitN(string(out), "\n", 2)[0]
	return strings.TrimSpace(line), nil
}

// Options control a single conversion. Resolution is "WIDTHxHEIGHT"
// or a bare height like "720", which keeps the aspect ratio.
type Options struct {
	OutputDir    string
	OutputFormat string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	CRF          int
	Preset       string
	Resolution   string
	SampleRate   int
	Channels     int
	AudioOnly    bool
	OnProgress   func(models.Progress)
}

var audioFormats = map[string]bool{
	"mp3": true, "m4a": true, "aac": true, "opus": true,
	"ogg": true, "flac": true, "wav": true,
}

// Convert transcodes input into the requested container. Formats in
// the audio set, or AudioOnly, drop the video stream. The output path
// is derived from the input name and made unique.
func (c *Converter) Convert(ctx context.Context, input string, opts Options) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", utils.NewFileNotFoundError(input)
	}
	if _, err := exec.LookPath(c.cfg.FfmpegPath); err != nil {
		return "", utils.NewToolNotFoundError("ffmpeg")
	}

	format := strings.ToLower(opts.OutputFormat)
	if format == "" {
		format = "mp4"
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = c.cfg.OutputDir
	}
	if err := utils.EnsureDir(outputDir); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	output := utils.UniqueFilename(filepath.Join(outputDir, utils.SanitizeFilename(stem)+"."+format))

	var args []string
	if opts.AudioOnly || audioFormats[format] {
		args = c.audioArgs(ctx, input, output, format, opts)
	} else {
		args = c.videoArgs(ctx, input, output, opts)
	}

	if err := c.run(ctx, args, opts.OnProgress); err != nil {
		os.Remove(output)
		return "", err
	}
	return output, nil
}

// ExtractAudio pulls the audio track out of a video file.
func (c *Converter) ExtractAudio(ctx context.Context, input, format string, opts Options) (string, error) {
	opts.AudioOnly = true
	opts.OutputFormat = format
	return c.Convert(ctx, input, opts)
}

func (c *Converter) videoArgs(ctx context.Context, input, output string, opts Options) []string {
	hw := c.hw.detect(ctx, c.cfg.FfmpegPath)

	codec := opts.VideoCodec
	if codec == "" {
		codec = c.cfg.VideoCodec
	}
	encoder := selectVideoEncoder(codec, hw, c.cfg.HardwareAccel)

	crf := opts.CRF
	if crf == 0 {
		crf = c.cfg.CRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = c.cfg.Preset
	}
	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = c.cfg.AudioCodec
	}
	bitrate := opts.AudioBitrate
	if bitrate == "" {
		bitrate = c.cfg.AudioBitrate
	}

	args := []string{"-y", "-i", input, "-c:v", encoder}
	args = append(args, qualityArgs(encoder, crf, preset)...)
	if opts.Resolution != "" {
		args = append(args, "-vf", "scale="+scaleFilter(opts.Resolution))
	}
	args = append(args, "-c:a", audioEncoder(audioCodec))
	if audioCodec != "flac" && audioCodec != "copy" {
		args = append(args, "-b:a", bitrate)
	}
	args = append(args, audioStreamArgs(opts)...)
	return append(args, output)
}

func (c *Converter) audioArgs(ctx context.Context, input, output, format string, opts Options) []string {
	codec := opts.AudioCodec
	if codec == "" {
		codec = defaultAudioCodec(format)
	}
	bitrate := opts.AudioBitrate
	if bitrate == "" {
		bitrate = c.cfg.AudioBitrate
	}

	args := []string{"-y", "-i", input, "-vn", "-c:a", audioEncoder(codec)}
	// Lossless codecs take no bitrate flag.
	if codec != "flac" && codec != "wav" && codec != "copy" {
		args = append(args, "-b:a", bitrate)
	}
	args = append(args, audioStreamArgs(opts)...)
	return append(args, output)
}

// audioStreamArgs maps the optional sample rate and channel count.
func audioStreamArgs(opts Options) []string {
	var args []string
	if opts.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(opts.SampleRate))
	}
	if opts.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(opts.Channels))
	}
	return args
}

// scaleFilter converts "1280x720", "720p" or a bare height into an
// ffmpeg scale argument. A bare height keeps the aspect ratio, with
// -2 rounding the width to an even value.
func scaleFilter(res string) string {
	res = strings.TrimSuffix(strings.ToLower(res), "p")
	if w, h, ok := strings.Cut(res, "x"); ok {
		return w + ":" + h
	}
	return "-2:" + res
}

// run executes ffmpeg and streams progress from stderr.
func (c *Converter) run(ctx context.Context, args []string, onProgress func(models.Progress)) error {
	cmd := exec.CommandContext(ctx, c.cfg.FfmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	var lastLines []string
	var totalDuration float64

	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanCarriageLines)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if d, ok := parseDurationLine(line); ok {
			totalDuration = d
		}
		if p, ok := parseProgressLine(line, totalDuration); ok && onProgress != nil {
			onProgress(p)
		}
		lastLines = append(lastLines, line)
		if len(lastLines) > 10 {
			lastLines = lastLines[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.Join(lastLines, " | "))
	}
	return nil
}

// scanCarriageLines splits on \n and \r, since ffmpeg rewrites its
// status line with carriage returns.
func scanCarriageLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var (
	durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
	timePattern     = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)
	speedPattern    = regexp.MustCompile(`speed=\s*(\S+)`)
)

func parseDurationLine(line string) (float64, bool) {
	m := durationPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return hmsToSeconds(m[1], m[2], m[3]), true
}

// parseProgressLine reads ffmpeg status lines like
// "frame= 1234 fps=56 q=28.0 size= 10240kB time=00:01:10.23 bitrate=1195.2kbits/s speed=2.1x".
func parseProgressLine(line string, totalDuration float64) (models.Progress, bool) {
	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return models.Progress{}, false
	}

	p := models.Progress{}
	if totalDuration > 0 {
		percent := hmsToSeconds(m[1], m[2], m[3]) / totalDuration * 100
		if percent > 100 {
			percent = 100
		}
		if percent < 0 {
			percent = 0
		}
		p.Percent = percent
	}
	if s := speedPattern.FindStringSubmatch(line); s != nil && s[1] != "N/A" {
		p.Speed = s[1]
	}
	return p, true
}

func hmsToSeconds(h, m, s string) float64 {
	hours, _ := strconv.ParseFloat(h, 64)
	minutes, _ := strconv.ParseFloat(m, 64)
	seconds, _ := strconv.ParseFloat(s, 64)
	return hours*3600 + minutes*60 + seconds
}

// audioEncoder maps a codec name to ffmpeg's encoder name.
func audioEncoder(codec string) string {
	switch codec {
	case "mp3":
		return "libmp3lame"
	case "aac", "m4a":
		return "aac"
	case "opus":
		return "libopus"
	case "vorbis", "ogg":
		return "libvorbis"
	case "flac":
		return "flac"
	case "wav":
		return "pcm_s16le"
	case "copy":
		return "copy"
	default:
		return codec
	}
}

func defaultAudioCodec(format string) string {
	switch format {
	case "mp3":
		return "mp3"
	case "m4a", "aac":
		return "aac"
	case "opus":
		return "opus"
	case "ogg":
		return "vorbis"
	case "flac":
		return "flac"
	case "wav":
		return "wav"
	default:
		return "aac"
	}
}
