package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoID(t *testing.T) {
	testCases := []struct {
		name        string
		url         string
		expected    string
		expectError bool
	}{
		{
			name:     "Watch URL",
			url:      "https://www.youtube.com/watch?v=JC-uvbOfag4",
			expected: "JC-uvbOfag4",
		},
		{
			name:     "Short link",
			url:      "https://youtu.be/JC-uvbOfag4",
			expected: "JC-uvbOfag4",
		},
		{
			name:     "Embed URL",
			url:      "https://www.youtube.com/embed/JC-uvbOfag4",
			expected: "JC-uvbOfag4",
		},
		{
			name:        "Not a YouTube URL",
			url:         "https://www.nicovideo.jp/watch/sm33593693",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseVideoID(tc.url)
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestParseQuality(t *testing.T) {
	assert.Equal(t, 720, parseQuality("720p"))
	assert.Equal(t, 1080, parseQuality("hd1080"))
	assert.Equal(t, 0, parseQuality("best"))
	assert.Equal(t, 0, parseQuality(""))
}

func TestExtFromMimeType(t *testing.T) {
	assert.Equal(t, "mp4", extFromMimeType(`video/mp4; codecs="avc1.640028"`))
	assert.Equal(t, "webm", extFromMimeType(`audio/webm; codecs="opus"`))
	assert.Equal(t, "", extFromMimeType("application/octet-stream"))
}
