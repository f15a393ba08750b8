package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectURLs(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	audio := fs.Bool("audio", false, "")
	ext := fs.String("ext", "", "")

	urls, err := collectURLs(fs, []string{
		"https://youtu.be/JC-uvbOfag4",
		"--audio",
		"https://nico.ms/sm33593693",
		"--ext", "mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://youtu.be/JC-uvbOfag4",
		"https://nico.ms/sm33593693",
	}, urls)
	assert.True(t, *audio)
	assert.Equal(t, "mp3", *ext)
}

func TestCollectURLsFlagsFirst(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	audio := fs.Bool("audio", false, "")

	urls, err := collectURLs(fs, []string{"--audio", "https://youtu.be/JC-uvbOfag4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://youtu.be/JC-uvbOfag4"}, urls)
	assert.True(t, *audio)
}

func TestCollectURLsRejectsStrayArgument(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)

	_, err := collectURLs(fs, []string{"https://youtu.be/JC-uvbOfag4", "playlist.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "playlist.txt")
}
