package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	windowsReservedNames = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
		"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	}
)

const maxFilenameLength = 255

// SanitizeFilename makes a title safe to use as a filename on any
// supported platform. Empty or fully stripped names become "untitled".
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if windowsReservedNames[strings.ToUpper(stem)] {
		name = "_" + name
	}

	if len(name) > maxFilenameLength {
		ext := filepath.Ext(name)
		if len(ext) > maxFilenameLength {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}

	if name == "" {
		name = "untitled"
	}
	return name
}

// UniqueFilename returns path unchanged if it does not exist yet,
// otherwise appends _1, _2, ... before the extension. After 9999
// attempts it falls back to a timestamp suffix.
func UniqueFilename(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; i <= 9999; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, stamp, ext))
}

// FormatBytes renders a byte count in a human readable unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var filesizePattern = regexp.MustCompile(`(?i)^\s*([\d.]+)\s*([KMGT]?)(I?B)?\s*$`)

// ParseFilesize parses strings like "500", "100MB", "2G" or "1.5GiB"
// into a byte count.
func ParseFilesize(s string) (int64, error) {
	m := filesizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid filesize %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid filesize %q: %w", s, err)
	}

	multiplier := float64(1)
	switch strings.ToUpper(m[2]) {
	case "K":
		multiplier = 1 << 10
	case "M":
		multiplier = 1 << 20
	case "G":
		multiplier = 1 << 30
	case "T":
		multiplier = 1 << 40
	}

	return int64(value * multiplier), nil
}

// EnsureDir creates the directory and its parents if missing.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
