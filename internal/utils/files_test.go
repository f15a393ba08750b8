package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Clean name unchanged",
			input:    "my video.mp4",
			expected: "my video.mp4",
		},
		{
			name:     "Invalid characters replaced",
			input:    `a<b>c:d"e/f\g|h?i*j.mp4`,
			expected: "a_b_c_d_e_f_g_h_i_j.mp4",
		},
		{
			name:     "Trailing dots and spaces trimmed",
			input:    "video. ",
			expected: "video",
		},
		{
			name:     "Windows reserved name prefixed",
			input:    "CON.mp4",
			expected: "_CON.mp4",
		},
		{
			name:     "Reserved name case insensitive",
			input:    "aux.txt",
			expected: "_aux.txt",
		},
		{
			name:     "Empty becomes untitled",
			input:    "",
			expected: "untitled",
		},
		{
			name:     "Only invalid characters becomes untitled",
			input:    "...",
			expected: "untitled",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeFilename(tc.input)
			if got != tc.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".mp4"
	got := SanitizeFilename(long)
	if len(got) > 255 {
		t.Errorf("expected length <= 255, got %d", len(got))
	}
	if !strings.HasSuffix(got, ".mp4") {
		t.Errorf("expected extension preserved, got %q", got)
	}
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "video.mp4")
	if got := UniqueFilename(path); got != path {
		t.Errorf("expected %q for missing file, got %q", path, got)
	}

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "video_1.mp4")
	if got := UniqueFilename(path); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if err := os.WriteFile(want, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	want2 := filepath.Join(dir, "video_2.mp4")
	if got := UniqueFilename(path); got != want2 {
		t.Errorf("expected %q, got %q", want2, got)
	}
}

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, tc := range testCases {
		if got := FormatBytes(tc.input); got != tc.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		input    float64
		expected string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{75, "1:15"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}

	for _, tc := range testCases {
		if got := FormatDuration(tc.input); got != tc.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestParseFilesize(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    int64
		expectError bool
	}{
		{name: "Plain bytes", input: "500", expected: 500},
		{name: "Megabytes", input: "100MB", expected: 100 << 20},
		{name: "Gigabytes short", input: "2G", expected: 2 << 30},
		{name: "Fractional", input: "1.5K", expected: 1536},
		{name: "Lowercase", input: "10mb", expected: 10 << 20},
		{name: "Garbage", input: "lots", expectError: true},
		{name: "Empty", input: "", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFilesize(tc.input)
			if tc.expectError {
				if err == nil {
					t.Errorf("ParseFilesize(%q) expected error, got %d", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilesize(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.expected {
				t.Errorf("ParseFilesize(%q) = %d, want %d", tc.input, got, tc.expected)
			}
		})
	}
}
