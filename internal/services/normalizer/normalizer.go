// Package normalizer canonicalizes video page URLs so the same content
// always maps to the same URL, regardless of share links, tracking
// parameters or mobile hosts.
package normalizer

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/liveleaper/liveleaper/internal/models"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// Result is the outcome of normalizing a single URL.
type Result struct {
	URL        string
	Platform   models.Platform
	ContentID  string
	IsPlaylist bool
}

var (
	youtubeIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	niconicoIDPattern = regexp.MustCompile(`^(?:sm|nm|so)?\d+$`)
)

// Normalize validates a URL and rewrites it into canonical form.
// Tracking and timestamp query parameters are dropped; short hosts
// (youtu.be, nico.ms) and alternate paths (shorts, live, embed) are
// rewritten to the canonical watch page.
func Normalize(raw string) (*Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, utils.NewInvalidURLError(raw)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, utils.NewInvalidURLError(raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		return normalizeYouTube(u, raw)
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if !youtubeIDPattern.MatchString(id) {
			return nil, utils.NewInvalidURLError(raw)
		}
		return youtubeVideo(id), nil
	case "nicovideo.jp", "sp.nicovideo.jp":
		return normalizeNiconico(u, raw)
	case "nico.ms":
		id := strings.Trim(u.Path, "/")
		if !niconicoIDPattern.MatchString(id) {
			return nil, utils.NewInvalidURLError(raw)
		}
		return niconicoVideo(id), nil
	default:
		// Any other host passes through untouched, so yt-dlp can take
		// a shot at every site it supports.
		return otherVideo(raw), nil
	}
}

func normalizeYouTube(u *url.URL, raw string) (*Result, error) {
	path := strings.TrimSuffix(u.Path, "/")

	switch {
	case path == "/watch":
		if id := u.Query().Get("v"); youtubeIDPattern.MatchString(id) {
			return youtubeVideo(id), nil
		}
		if list := u.Query().Get("list"); list != "" {
			return youtubePlaylist(list), nil
		}
		return nil, utils.NewInvalidURLError(raw)
	case path == "/playlist":
		list := u.Query().Get("list")
		if list == "" {
			return nil, utils.NewInvalidURLError(raw)
		}
		return youtubePlaylist(list), nil
	case strings.HasPrefix(path, "/shorts/"),
		strings.HasPrefix(path, "/live/"),
		strings.HasPrefix(path, "/embed/"),
		strings.HasPrefix(path, "/v/"):
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) != 2 || !youtubeIDPattern.MatchString(parts[1]) {
			return nil, utils.NewInvalidURLError(raw)
		}
		return youtubeVideo(parts[1]), nil
	default:
		return nil, utils.NewInvalidURLError(raw)
	}
}

func normalizeNiconico(u *url.URL, raw string) (*Result, error) {
	path := strings.TrimSuffix(u.Path, "/")

	switch {
	case strings.HasPrefix(path, "/watch/"):
		id := strings.TrimPrefix(path, "/watch/")
		if !niconicoIDPattern.MatchString(id) {
			return nil, utils.NewInvalidURLError(raw)
		}
		return niconicoVideo(id), nil
	case strings.HasPrefix(path, "/mylist/"), strings.HasPrefix(path, "/series/"):
		id := strings.Trim(strings.TrimPrefix(strings.TrimPrefix(path, "/mylist/"), "/series/"), "/")
		if id == "" {
			return nil, utils.NewInvalidURLError(raw)
		}
		return &Result{
			URL:        fmt.Sprintf("https://www.nicovideo.jp%s", path),
			Platform:   models.PlatformNiconico,
			ContentID:  id,
			IsPlaylist: true,
		}, nil
	default:
		return nil, utils.NewInvalidURLError(raw)
	}
}

func youtubeVideo(id string) *Result {
	return &Result{
		URL:       fmt.Sprintf("https://www.youtube.com/watch?v=%s", id),
		Platform:  models.PlatformYouTube,
		ContentID: id,
	}
}

func youtubePlaylist(listID string) *Result {
	return &Result{
		URL:        fmt.Sprintf("https://www.youtube.com/playlist?list=%s", listID),
		Platform:   models.PlatformYouTube,
		ContentID:  listID,
		IsPlaylist: true,
	}
}

func niconicoVideo(id string) *Result {
	return &Result{
		URL:       fmt.Sprintf("https://www.nicovideo.jp/watch/%s", id),
		Platform:  models.PlatformNiconico,
		ContentID: id,
	}
}

// otherVideo wraps an unrecognized URL. The content ID is a URL hash,
// which keeps deduplication and archive keys working without
// platform-specific parsing.
func otherVideo(raw string) *Result {
	sum := sha1.Sum([]byte(raw))
	return &Result{
		URL:       raw,
		Platform:  models.PlatformOther,
		ContentID: hex.EncodeToString(sum[:6]),
	}
}

// NormalizeAll normalizes a list of URLs, deduplicating by canonical
// URL while preserving order. Invalid entries are returned separately
// instead of failing the whole batch.
func NormalizeAll(raw []string) (results []*Result, invalid []string) {
	seen := make(map[string]bool)
	for _, r := range raw {
		res, err := Normalize(r)
		if err != nil {
			invalid = append(invalid, r)
			continue
		}
		if seen[res.URL] {
			continue
		}
		seen[res.URL] = true
		results = append(results, res)
	}
	return results, invalid
}

// ReadURLFile reads one URL per line, skipping blank lines and lines
// starting with '#'.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	return ParseURLList(f)
}

// ParseURLList reads one URL per line from r, skipping blank lines and
// '#' comments.
func ParseURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}
