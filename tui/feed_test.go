package tui

import (
	"strings"
	"testing"
	"time"
)

func TestFeedAdd(t *testing.T) {
	f := NewFeed(60, 5)
	f.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	if !strings.Contains(f.Render(), "No activity yet") {
		t.Error("empty feed should show the empty notice")
	}

	f.AddRequest("/api/generate", 2048)
	f.AddResponse("Transcript received", 1500*time.Millisecond, "A mug thrown by hand")
	f.AddError("Run failed", "Server responded with status: 502")

	out := f.Render()
	for _, want := range []string{"09:30:00", "POST /api/generate", "2.00 KB", "1.5s", "A mug thrown by hand", "status: 502"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q\n%s", want, out)
		}
	}
}

func TestFeedMaxEntries(t *testing.T) {
	f := NewFeed(60, 5)
	f.MaxEntries = 3

	for i := 0; i < 5; i++ {
		f.AddStatus("entry", string(rune('a'+i)))
	}

	if len(f.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(f.Entries))
	}
	if f.Entries[0].Detail != "c" {
		t.Errorf("oldest kept = %q, want c", f.Entries[0].Detail)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 40, "line one line two"},
		{"abcdefghijklmnop", 10, "abcdefg..."},
		{"नमस्ते दुनिया", 40, "नमस्ते दुनिया"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatDataSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.50 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}

	for _, tt := range tests {
		if got := formatDataSize(tt.in); got != tt.want {
			t.Errorf("formatDataSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
