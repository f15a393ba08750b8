package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgressLine(t *testing.T) {
	testCases := []struct {
		name    string
		line    string
		percent float64
		speed   string
		eta     string
		ok      bool
	}{
		{
			name:    "Full progress line",
			line:    "[download]  42.3% of 10.55MiB at 1.20MiB/s ETA 00:15",
			percent: 42.3,
			speed:   "1.20MiB/s",
			eta:     "00:15",
			ok:      true,
		},
		{
			name:    "Estimated size",
			line:    "[download]   5.0% of ~ 250.00MiB at  512.00KiB/s ETA 07:44",
			percent: 5.0,
			speed:   "512.00KiB/s",
			eta:     "07:44",
			ok:      true,
		},
		{
			name:    "Completed line without ETA",
			line:    "[download] 100% of 10.55MiB in 00:09",
			percent: 100,
			ok:      true,
		},
		{
			name:    "Unknown speed dropped",
			line:    "[download]  12.0% of 10.55MiB at Unknown speed ETA Unknown",
			percent: 12.0,
			ok:      true,
		},
		{
			name: "Destination line is not progress",
			line: "[download] Destination: downloads/video.mp4",
		},
		{
			name: "Unrelated output",
			line: "[youtube] JC-uvbOfag4: Downloading webpage",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := parseProgressLine(tc.line)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tc.percent, p.Percent, 0.001)
			assert.Equal(t, tc.speed, p.Speed)
			assert.Equal(t, tc.eta, p.ETA)
		})
	}
}

func TestParseDestination(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected string
	}{
		{
			name:     "Plain destination",
			line:     "[download] Destination: downloads/My Video.f137.mp4",
			expected: "downloads/My Video.f137.mp4",
		},
		{
			name:     "Merger output",
			line:     `[Merger] Merging formats into "downloads/My Video.mp4"`,
			expected: "downloads/My Video.mp4",
		},
		{
			name:     "Audio extraction",
			line:     "[ExtractAudio] Destination: downloads/My Video.mp3",
			expected: "downloads/My Video.mp3",
		},
		{
			name:     "Already downloaded",
			line:     "[download] downloads/My Video.mp4 has already been downloaded",
			expected: "downloads/My Video.mp4",
		},
		{
			name: "Progress line",
			line: "[download]  42.3% of 10.55MiB at 1.20MiB/s ETA 00:15",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseDestination(tc.line))
		})
	}
}

func TestFormatSelector(t *testing.T) {
	testCases := []struct {
		quality  string
		expected string
	}{
		{"", "bestvideo*+bestaudio/best"},
		{"best", "bestvideo*+bestaudio/best"},
		{"worst", "worstvideo*+worstaudio/worst"},
		{"720p", "bestvideo[height<=720]+bestaudio/best[height<=720]"},
		{"1080", "bestvideo[height<=1080]+bestaudio/best[height<=1080]"},
		{"bv[ext=mp4]+ba", "bv[ext=mp4]+ba"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, formatSelector(tc.quality), "quality %q", tc.quality)
	}
}

func TestBuildDownloadArgs(t *testing.T) {
	t.Run("Video download", func(t *testing.T) {
		args := buildDownloadArgs("https://www.youtube.com/watch?v=x", DownloadOptions{
			OutputDir: "downloads",
			Quality:   "720p",
		})
		assert.Contains(t, args, "--no-playlist")
		assert.Contains(t, args, "-f")
		assert.Contains(t, args, "bestvideo[height<=720]+bestaudio/best[height<=720]")
		assert.NotContains(t, args, "-x")
		assert.Equal(t, "https://www.youtube.com/watch?v=x", args[len(args)-1])
	})

	t.Run("Audio download", func(t *testing.T) {
		args := buildDownloadArgs("https://www.youtube.com/watch?v=x", DownloadOptions{
			OutputDir:   "downloads",
			AudioOnly:   true,
			AudioFormat: "flac",
		})
		assert.Contains(t, args, "-x")
		assert.Contains(t, args, "--audio-format")
		assert.Contains(t, args, "flac")
		assert.NotContains(t, args, "-f")
	})

	t.Run("Max filesize", func(t *testing.T) {
		args := buildDownloadArgs("u", DownloadOptions{OutputDir: "d", MaxFileSize: 1024})
		assert.Contains(t, args, "--max-filesize")
		assert.Contains(t, args, "1024")
	})
}

func TestPlatformFromExtractor(t *testing.T) {
	assert.Equal(t, "youtube", string(platformFromExtractor("Youtube")))
	assert.Equal(t, "youtube", string(platformFromExtractor("YoutubeTab")))
	assert.Equal(t, "niconico", string(platformFromExtractor("Niconico")))
	assert.Equal(t, "generic", string(platformFromExtractor("Generic")))
}
