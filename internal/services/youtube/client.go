// Package youtube downloads YouTube videos natively, without yt-dlp.
// It is used as a fallback when the yt-dlp binary is not installed,
// and only supports YouTube.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

type Client struct {
	client     *youtube.Client
	ffmpegPath string
}

// NewClient creates a native YouTube client. ffmpegPath is the ffmpeg
// binary used to merge separate video and audio streams.
func NewClient(ffmpegPath string) *Client {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	return &Client{
		client:     &youtube.Client{HTTPClient: httpClient},
		ffmpegPath: ffmpegPath,
	}
}

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`)

// ParseVideoID extracts the 11 character video ID from a YouTube URL.
func ParseVideoID(url string) (string, error) {
	matches := videoIDPattern.FindStringSubmatch(url)
	if len(matches) > 1 {
		return matches[1], nil
	}
	return "", utils.NewInvalidURLError(url)
}

// GetVideoInfo retrieves video metadata.
func (c *Client) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	videoID, err := ParseVideoID(url)
	if err != nil {
		return nil, err
	}

	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, utils.NewVideoNotFoundError(url)
	}

	info := &models.VideoInfo{
		ID:       video.ID,
		Title:    video.Title,
		Uploader: video.Author,
		Duration: video.Duration.Seconds(),
		Platform: models.PlatformYouTube,
		URL:      url,
	}
	if len(video.Thumbnails) > 0 {
		info.Thumbnail = video.Thumbnails[0].URL
	}
	for _, f := range video.Formats {
		info.Formats = append(info.Formats, models.Format{
			FormatID:   strconv.Itoa(f.ItagNo),
			Ext:        extFromMimeType(f.MimeType),
			Resolution: f.Quality,
			FPS:        float64(f.FPS),
			Filesize:   f.ContentLength,
		})
	}
	return info, nil
}

// DownloadVideo downloads the best matching video and audio streams,
// merges them with ffmpeg and writes the result into outputDir. It
// returns the path of the merged file.
func (c *Client) DownloadVideo(ctx context.Context, url, quality, outputDir string, onProgress func(models.Progress)) (string, error) {
	videoID, err := ParseVideoID(url)
	if err != nil {
		return "", err
	}

	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", utils.NewVideoNotFoundError(url)
	}

	videoFormat := bestVideoFormat(video.Formats, quality)
	if videoFormat == nil {
		return "", fmt.Errorf("no suitable video format for %s", videoID)
	}
	audioFormat := bestAudioFormat(video.Formats)
	if audioFormat == nil {
		return "", fmt.Errorf("no suitable audio format for %s", videoID)
	}

	tempDir, err := os.MkdirTemp("", "liveleaper_native_*")
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	videoPath := filepath.Join(tempDir, "video.mp4")
	audioPath := filepath.Join(tempDir, "audio.m4a")

	total := videoFormat.ContentLength + audioFormat.ContentLength
	var written int64

	progress := func(n int64) {
		if onProgress == nil || total <= 0 {
			return
		}
		written += n
		percent := float64(written) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
		onProgress(models.Progress{Percent: percent})
	}

	if err := c.downloadStream(ctx, video, videoFormat, videoPath, progress); err != nil {
		return "", fmt.Errorf("download video stream: %w", err)
	}
	if err := c.downloadStream(ctx, video, audioFormat, audioPath, progress); err != nil {
		return "", fmt.Errorf("download audio stream: %w", err)
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return "", err
	}
	outputPath := utils.UniqueFilename(filepath.Join(outputDir, utils.SanitizeFilename(video.Title)+".mp4"))

	if err := c.mergeVideoAudio(ctx, videoPath, audioPath, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// bestVideoFormat selects the best video-only mp4 format, closest to
// the preferred quality when one is given.
func bestVideoFormat(formats youtube.FormatList, preferredQuality string) *youtube.Format {
	var bestFormat *youtube.Format
	var bestQuality int
	targetQuality := parseQuality(preferredQuality)

	for i := range formats {
		format := &formats[i]
		if format.MimeType == "" || !strings.Contains(format.MimeType, "video") {
			continue
		}
		if format.AudioChannels > 0 {
			continue
		}
		if !strings.Contains(format.MimeType, "mp4") {
			continue
		}

		quality := parseQuality(format.Quality)
		if targetQuality > 0 {
			if quality == targetQuality {
				return format
			}
			if bestFormat == nil || abs(quality-targetQuality) < abs(bestQuality-targetQuality) {
				bestFormat = format
				bestQuality = quality
			}
		} else {
			if bestFormat == nil || quality > bestQuality {
				bestFormat = format
				bestQuality = quality
			}
		}
	}

	// Fallback to any video-only format if no mp4 found
	if bestFormat == nil {
		for i := range formats {
			format := &formats[i]
			if format.MimeType != "" && strings.Contains(format.MimeType, "video") && format.AudioChannels == 0 {
				return format
			}
		}
	}

	return bestFormat
}

// bestAudioFormat selects the highest bitrate audio-only format,
// preferring mp4/m4a containers.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var bestFormat *youtube.Format
	var bestBitrate int

	for i := range formats {
		format := &formats[i]
		if format.MimeType == "" || !strings.Contains(format.MimeType, "audio") {
			continue
		}
		if strings.Contains(format.MimeType, "mp4") || strings.Contains(format.MimeType, "m4a") {
			if bestFormat == nil || format.Bitrate > bestBitrate {
				bestFormat = format
				bestBitrate = format.Bitrate
			}
		}
	}

	if bestFormat == nil {
		for i := range formats {
			format := &formats[i]
			if format.MimeType != "" && strings.Contains(format.MimeType, "audio") {
				if bestFormat == nil || format.Bitrate > bestBitrate {
					bestFormat = format
					bestBitrate = format.Bitrate
				}
			}
		}
	}

	return bestFormat
}

func (c *Client) downloadStream(ctx context.Context, video *youtube.Video, format *youtube.Format, outputPath string, progress func(int64)) error {
	stream, _, err := c.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 128*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write stream: %w", werr)
			}
			progress(int64(n))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// mergeVideoAudio merges the two streams without re-encoding video.
func (c *Client) mergeVideoAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if _, err := exec.LookPath(c.ffmpegPath); err != nil {
		return utils.NewToolNotFoundError("ffmpeg")
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg merge failed: %w, output: %s", err, string(output))
	}
	return nil
}

// parseQuality extracts the height from a quality label, e.g. "720p" -> 720.
func parseQuality(quality string) int {
	re := regexp.MustCompile(`(\d+)`)
	matches := re.FindStringSubmatch(quality)
	if len(matches) > 1 {
		if q, err := strconv.Atoi(matches[1]); err == nil {
			return q
		}
	}
	return 0
}

func extFromMimeType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/mp4"), strings.HasPrefix(mimeType, "audio/mp4"):
		return "mp4"
	case strings.HasPrefix(mimeType, "video/webm"), strings.HasPrefix(mimeType, "audio/webm"):
		return "webm"
	default:
		return ""
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
