package ui

import (
	"testing"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestTruncateRunesHelper_CellWidthSafe(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		suffix   string
		want     string
	}{
		{name: "zero max", input: "hello", maxWidth: 0, suffix: "…", want: ""},
		{name: "fits", input: "hello", maxWidth: 10, suffix: "…", want: "hello"},
		{name: "ascii cut", input: "abcdef", maxWidth: 4, suffix: "…", want: "abc…"},
		{name: "wide runes", input: "こんにちは", maxWidth: 6, suffix: "…", want: "こん…"},
		{name: "suffix wider than max", input: "hello", maxWidth: 2, suffix: "...", want: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.input, tt.maxWidth, tt.suffix)
			if got != tt.want {
				t.Fatalf("truncateRunesHelper(%q, %d, %q) = %q; want %q",
					tt.input, tt.maxWidth, tt.suffix, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("output is not valid UTF-8: %q", got)
			}
			if w := runewidth.StringWidth(got); w > tt.maxWidth {
				t.Fatalf("output is %d cells wide; max %d", w, tt.maxWidth)
			}
		})
	}
}

func TestTruncateEllipsis(t *testing.T) {
	if got := truncate("network latency budget", 10); got != "network l…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate should not cut %q, got %q", "short", got)
	}
}
