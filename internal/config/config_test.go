package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setTempDirs points the output directories at a temp location so
// loading does not create directories in the working tree.
func setTempDirs(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LIVELEAPER_DOWNLOAD_OUTPUT_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("LIVELEAPER_CONVERT_OUTPUT_DIR", filepath.Join(dir, "converted"))
}

func TestLoadDefaults(t *testing.T) {
	setTempDirs(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "auto", cfg.Download.Engine)
	assert.Equal(t, 3, cfg.Download.MaxConcurrentDownloads)
	assert.Equal(t, 3, cfg.Download.RetryCount)
	assert.Equal(t, "mp3", cfg.Download.AudioFormat)
	assert.Equal(t, "yt-dlp", cfg.Download.YtdlpPath)
	assert.Equal(t, int64(4)<<30, cfg.Download.MaxFileSize)
	assert.Equal(t, "h264", cfg.Convert.VideoCodec)
	assert.Equal(t, 23, cfg.Convert.CRF)
	assert.True(t, cfg.Convert.HardwareAccel)
	assert.False(t, cfg.Mongo.Enabled)
	assert.Equal(t, "custom", cfg.CORS.Profile)
}

func TestLoadMaxFileSizeString(t *testing.T) {
	setTempDirs(t)
	t.Setenv("LIVELEAPER_DOWNLOAD_MAX_FILE_SIZE", "500M")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(500)<<20, cfg.Download.MaxFileSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	mediaDir := filepath.Join(dir, "media")
	path := filepath.Join(dir, "liveleaper.yaml")
	content := `
server:
  port: "9090"
download:
  output_dir: ` + mediaDir + `
  max_concurrent: 5
convert:
  output_dir: ` + filepath.Join(dir, "converted") + `
  crf: 28
cors:
  profile: development
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, mediaDir, cfg.Download.OutputDir)
	// Validation creates the configured output directory.
	assert.DirExists(t, mediaDir)
	assert.Equal(t, 5, cfg.Download.MaxConcurrentDownloads)
	assert.Equal(t, 28, cfg.Convert.CRF)
	assert.Equal(t, "development", cfg.CORS.Profile)
	// Unset keys keep their defaults.
	assert.Equal(t, "aac", cfg.Convert.AudioCodec)
}

func TestLoadEnvOverride(t *testing.T) {
	setTempDirs(t)
	t.Setenv("LIVELEAPER_SERVER_PORT", "7070")
	t.Setenv("LIVELEAPER_DOWNLOAD_AUDIO_FORMAT", "flac")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "flac", cfg.Download.AudioFormat)
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name    string
		envKey  string
		envVal  string
		wantErr string
	}{
		{
			name:    "Bad storage backend",
			envKey:  "LIVELEAPER_STORAGE_BACKEND",
			envVal:  "ftp",
			wantErr: "storage.backend",
		},
		{
			name:    "S3 without bucket",
			envKey:  "LIVELEAPER_STORAGE_BACKEND",
			envVal:  "s3",
			wantErr: "bucket_name",
		},
		{
			name:    "CRF out of range",
			envKey:  "LIVELEAPER_CONVERT_CRF",
			envVal:  "99",
			wantErr: "crf",
		},
		{
			name:    "Port out of range",
			envKey:  "LIVELEAPER_SERVER_PORT",
			envVal:  "70000",
			wantErr: "server.port",
		},
		{
			name:    "Port not a number",
			envKey:  "LIVELEAPER_SERVER_PORT",
			envVal:  "http",
			wantErr: "server.port",
		},
		{
			name:    "Unknown engine",
			envKey:  "LIVELEAPER_DOWNLOAD_ENGINE",
			envVal:  "wget",
			wantErr: "download.engine",
		},
		{
			name:    "Bad max file size",
			envKey:  "LIVELEAPER_DOWNLOAD_MAX_FILE_SIZE",
			envVal:  "lots",
			wantErr: "max_file_size",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setTempDirs(t)
			t.Setenv(tc.envKey, tc.envVal)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
