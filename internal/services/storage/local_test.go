package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)
	assert.Equal(t, root, s.Location())

	ctx := context.Background()
	key := "youtube/JC-uvbOfag4/video.mp4"

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Upload(ctx, key, strings.NewReader("payload"), "video/mp4"))

	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, s.Delete(ctx, key))
	exists, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageStoreFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "in.mp4")
	require.NoError(t, os.WriteFile(src, []byte("media"), 0644))

	require.NoError(t, s.StoreFile(context.Background(), "archived.mp4", src, "video/mp4"))

	data, err := os.ReadFile(filepath.Join(root, "archived.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media", string(data))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"../outside", "/etc/passwd", "a/../../b"} {
		err := s.Upload(ctx, key, strings.NewReader("x"), "")
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalStorageNoPresignedURLs(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.GeneratePresignedURL(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
