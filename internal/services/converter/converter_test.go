package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveleaper/liveleaper/internal/config"
)

func TestParseDurationLine(t *testing.T) {
	d, ok := parseDurationLine("  Duration: 00:03:25.54, start: 0.000000, bitrate: 1195 kb/s")
	require.True(t, ok)
	assert.InDelta(t, 205.54, d, 0.001)

	_, ok = parseDurationLine("Stream #0:0: Video: h264")
	assert.False(t, ok)
}

func TestParseProgressLine(t *testing.T) {
	line := "frame= 1234 fps=56 q=28.0 size=   10240kB time=00:01:42.77 bitrate=1195.2kbits/s speed=2.1x"

	p, ok := parseProgressLine(line, 205.54)
	require.True(t, ok)
	assert.InDelta(t, 50.0, p.Percent, 0.1)
	assert.Equal(t, "2.1x", p.Speed)

	// Without a known duration the line still parses but has no percent.
	p, ok = parseProgressLine(line, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, p.Percent)

	// Time past the reported duration clamps to 100.
	p, ok = parseProgressLine("time=00:10:00.00 speed=1x", 205.54)
	require.True(t, ok)
	assert.Equal(t, 100.0, p.Percent)

	_, ok = parseProgressLine("Press [q] to stop", 205.54)
	assert.False(t, ok)
}

func TestParseEncoderList(t *testing.T) {
	out := []byte(`Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`)
	found := parseEncoderList(out)
	assert.True(t, found["libx264"])
	assert.True(t, found["h264_nvenc"])
	assert.True(t, found["aac"])
	assert.False(t, found["hevc_nvenc"])
}

func TestSelectVideoEncoder(t *testing.T) {
	hw := map[string]bool{"h264_nvenc": true, "hevc_qsv": true}

	testCases := []struct {
		name      string
		codec     string
		hwEnabled bool
		expected  string
	}{
		{name: "H264 prefers NVENC", codec: "h264", hwEnabled: true, expected: "h264_nvenc"},
		{name: "H265 falls back to QSV", codec: "hevc", hwEnabled: true, expected: "hevc_qsv"},
		{name: "Hardware disabled", codec: "h264", hwEnabled: false, expected: "libx264"},
		{name: "Empty codec defaults to h264", codec: "", hwEnabled: true, expected: "h264_nvenc"},
		{name: "Copy passthrough", codec: "copy", hwEnabled: true, expected: "copy"},
		{name: "Unknown codec passed through", codec: "mjpeg", hwEnabled: true, expected: "mjpeg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, selectVideoEncoder(tc.codec, hw, tc.hwEnabled))
		})
	}

	t.Run("No hardware available", func(t *testing.T) {
		assert.Equal(t, "libx264", selectVideoEncoder("h264", map[string]bool{}, true))
	})
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-crf", "23", "-preset", "medium"}, qualityArgs("libx264", 23, "medium"))
	assert.Equal(t, []string{"-rc", "vbr", "-cq", "23", "-preset", "p5"}, qualityArgs("h264_nvenc", 23, "medium"))
	assert.Equal(t, []string{"-global_quality", "28", "-preset", "fast"}, qualityArgs("h264_qsv", 28, "fast"))
	assert.Nil(t, qualityArgs("copy", 23, "medium"))
}

func TestAudioEncoder(t *testing.T) {
	assert.Equal(t, "libmp3lame", audioEncoder("mp3"))
	assert.Equal(t, "aac", audioEncoder("aac"))
	assert.Equal(t, "libopus", audioEncoder("opus"))
	assert.Equal(t, "flac", audioEncoder("flac"))
	assert.Equal(t, "pcm_s16le", audioEncoder("wav"))
	assert.Equal(t, "custom_enc", audioEncoder("custom_enc"))
}

func TestAudioArgsLosslessNoBitrate(t *testing.T) {
	c := New(&config.ConvertConfig{AudioBitrate: "192k"})

	args := c.audioArgs(nil, "in.mp4", "out.flac", "flac", Options{})
	assert.NotContains(t, args, "-b:a")
	assert.Contains(t, args, "flac")
	assert.Contains(t, args, "-vn")

	args = c.audioArgs(nil, "in.mp4", "out.mp3", "mp3", Options{})
	assert.Contains(t, args, "-b:a")
	assert.Contains(t, args, "192k")
	assert.Contains(t, args, "libmp3lame")
}

func TestAudioArgsSampleRateAndChannels(t *testing.T) {
	c := New(&config.ConvertConfig{AudioBitrate: "192k"})

	args := c.audioArgs(nil, "in.mp4", "out.mp3", "mp3", Options{SampleRate: 44100, Channels: 2})
	assert.Contains(t, args, "-ar")
	assert.Contains(t, args, "44100")
	assert.Contains(t, args, "-ac")
	assert.Contains(t, args, "2")
}

func TestAudioStreamArgs(t *testing.T) {
	assert.Empty(t, audioStreamArgs(Options{}))
	assert.Equal(t, []string{"-ar", "48000"}, audioStreamArgs(Options{SampleRate: 48000}))
	assert.Equal(t, []string{"-ar", "44100", "-ac", "2"}, audioStreamArgs(Options{SampleRate: 44100, Channels: 2}))
}

func TestScaleFilter(t *testing.T) {
	assert.Equal(t, "1280:720", scaleFilter("1280x720"))
	assert.Equal(t, "-2:720", scaleFilter("720"))
	assert.Equal(t, "-2:480", scaleFilter("480p"))
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 29.97, parseFrameRate("30000/1001"), 0.01)
	assert.Equal(t, 25.0, parseFrameRate("25"))
	assert.Equal(t, 0.0, parseFrameRate("0/0"))
	assert.Equal(t, 0.0, parseFrameRate(""))
}

func TestNvencPreset(t *testing.T) {
	assert.Equal(t, "p1", nvencPreset("ultrafast"))
	assert.Equal(t, "p5", nvencPreset("medium"))
	assert.Equal(t, "p7", nvencPreset("veryslow"))
	assert.Equal(t, "p5", nvencPreset("weird"))
}
