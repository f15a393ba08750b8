package normalizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveleaper/liveleaper/internal/models"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectedURL string
		platform    models.Platform
		contentID   string
		playlist    bool
		expectError bool
	}{
		{
			name:        "Watch URL with timestamp stripped",
			input:       "https://www.youtube.com/watch?v=JC-uvbOfag4&t=127s",
			expectedURL: "https://www.youtube.com/watch?v=JC-uvbOfag4",
			platform:    models.PlatformYouTube,
			contentID:   "JC-uvbOfag4",
		},
		{
			name:        "Shorts URL",
			input:       "https://www.youtube.com/shorts/abc123XYZ_-",
			expectedURL: "https://www.youtube.com/watch?v=abc123XYZ_-",
			platform:    models.PlatformYouTube,
			contentID:   "abc123XYZ_-",
		},
		{
			name:        "Short share link with tracking",
			input:       "https://youtu.be/JC-uvbOfag4?si=xyzTracking",
			expectedURL: "https://www.youtube.com/watch?v=JC-uvbOfag4",
			platform:    models.PlatformYouTube,
			contentID:   "JC-uvbOfag4",
		},
		{
			name:        "Mobile host",
			input:       "https://m.youtube.com/watch?v=JC-uvbOfag4",
			expectedURL: "https://www.youtube.com/watch?v=JC-uvbOfag4",
			platform:    models.PlatformYouTube,
			contentID:   "JC-uvbOfag4",
		},
		{
			name:        "Live URL",
			input:       "https://www.youtube.com/live/JC-uvbOfag4",
			expectedURL: "https://www.youtube.com/watch?v=JC-uvbOfag4",
			platform:    models.PlatformYouTube,
			contentID:   "JC-uvbOfag4",
		},
		{
			name:        "Playlist URL",
			input:       "https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG",
			expectedURL: "https://www.youtube.com/playlist?list=PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG",
			platform:    models.PlatformYouTube,
			contentID:   "PLx0sYbCqOb8TBPRdmBHs5Iftvv9TPboYG",
			playlist:    true,
		},
		{
			name:        "Watch URL with video keeps video over list",
			input:       "https://www.youtube.com/watch?v=JC-uvbOfag4&list=PLx0sYbCqOb8T",
			expectedURL: "https://www.youtube.com/watch?v=JC-uvbOfag4",
			platform:    models.PlatformYouTube,
			contentID:   "JC-uvbOfag4",
		},
		{
			name:        "Niconico watch URL with referer stripped",
			input:       "https://www.nicovideo.jp/watch/sm33593693?rf=nvpc&rp=watch&ra=share",
			expectedURL: "https://www.nicovideo.jp/watch/sm33593693",
			platform:    models.PlatformNiconico,
			contentID:   "sm33593693",
		},
		{
			name:        "Niconico short link",
			input:       "https://nico.ms/sm33593693",
			expectedURL: "https://www.nicovideo.jp/watch/sm33593693",
			platform:    models.PlatformNiconico,
			contentID:   "sm33593693",
		},
		{
			name:        "Niconico mylist",
			input:       "https://www.nicovideo.jp/mylist/12345678",
			expectedURL: "https://www.nicovideo.jp/mylist/12345678",
			platform:    models.PlatformNiconico,
			contentID:   "12345678",
			playlist:    true,
		},
		{
			name:        "Unknown host passes through",
			input:       "https://vimeo.com/12345",
			expectedURL: "https://vimeo.com/12345",
			platform:    models.PlatformOther,
			contentID:   "1f284b6e6ebd",
		},
		{
			name:        "Unknown host is trimmed only",
			input:       "  https://www.twitch.tv/videos/123456789  ",
			expectedURL: "https://www.twitch.tv/videos/123456789",
			platform:    models.PlatformOther,
			contentID:   "7f4d97fac994",
		},
		{
			name:        "Not a URL",
			input:       "not-a-url",
			expectError: true,
		},
		{
			name:        "Empty",
			input:       "",
			expectError: true,
		},
		{
			name:        "Watch URL without video id",
			input:       "https://www.youtube.com/watch?t=127s",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Normalize(tc.input)
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedURL, res.URL)
			assert.Equal(t, tc.platform, res.Platform)
			assert.Equal(t, tc.contentID, res.ContentID)
			assert.Equal(t, tc.playlist, res.IsPlaylist)
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	input := []string{
		"https://www.youtube.com/watch?v=JC-uvbOfag4&t=127s",
		"https://youtu.be/JC-uvbOfag4",
		"https://nico.ms/sm33593693",
		"https://vimeo.com/12345",
		"not-a-url",
	}

	results, invalid := NormalizeAll(input)

	// The two YouTube links collapse into one canonical URL; the
	// unknown host passes through.
	require.Len(t, results, 3)
	assert.Equal(t, "https://www.youtube.com/watch?v=JC-uvbOfag4", results[0].URL)
	assert.Equal(t, "https://www.nicovideo.jp/watch/sm33593693", results[1].URL)
	assert.Equal(t, "https://vimeo.com/12345", results[2].URL)
	assert.Equal(t, []string{"not-a-url"}, invalid)
}

func TestReadURLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.txt")
	content := `# my queue
https://www.youtube.com/watch?v=JC-uvbOfag4

https://nico.ms/sm33593693
  # indented comment is still skipped
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	urls, err := ReadURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=JC-uvbOfag4",
		"https://nico.ms/sm33593693",
	}, urls)
}

func TestReadURLFileMissing(t *testing.T) {
	_, err := ReadURLFile("/nonexistent/urls.txt")
	assert.Error(t, err)
}

func TestParseURLList(t *testing.T) {
	urls, err := ParseURLList(strings.NewReader("https://youtu.be/JC-uvbOfag4\n# comment\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://youtu.be/JC-uvbOfag4"}, urls)
}
