package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAudioPayload(t *testing.T) {
	a := AudioPayload{Data: []byte("hi"), Duration: 65 * time.Second}

	if a.Empty() {
		t.Error("Empty() = true for payload with data")
	}
	if got := a.Base64(); got != "aGk=" {
		t.Errorf("Base64() = %q, want aGk=", got)
	}
	if got := a.Summary(); got != "01:05, 2 bytes" {
		t.Errorf("Summary() = %q", got)
	}
	if got := (AudioPayload{}).Summary(); got != "no recording" {
		t.Errorf("empty Summary() = %q", got)
	}
}

func TestLoadAudioFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "story.webm")
	if err := os.WriteFile(valid, []byte("webm-data"), 0o644); err != nil {
		t.Fatal(err)
	}
	payload, err := LoadAudioFile(valid)
	if err != nil {
		t.Fatalf("LoadAudioFile() error = %v", err)
	}
	if payload.MIMEType != "audio/webm" || string(payload.Data) != "webm-data" {
		t.Errorf("payload = %+v", payload)
	}

	unsupported := filepath.Join(dir, "story.txt")
	os.WriteFile(unsupported, []byte("text"), 0o644)
	if _, err := LoadAudioFile(unsupported); err == nil {
		t.Error("LoadAudioFile() should reject unsupported extension")
	}

	empty := filepath.Join(dir, "empty.mp3")
	os.WriteFile(empty, nil, 0o644)
	if _, err := LoadAudioFile(empty); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("LoadAudioFile(empty) error = %v, want ErrEmptyRecording", err)
	}

	if _, err := LoadAudioFile(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("LoadAudioFile() should fail for missing file")
	}
}

func TestAudioMIMEType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.webm", "audio/webm"},
		{"a.OGG", "audio/ogg"},
		{"a.opus", "audio/ogg"},
		{"a.mp3", "audio/mpeg"},
		{"a.wav", "audio/wav"},
		{"a.m4a", "audio/mp4"},
		{"a.flac", "audio/flac"},
		{"a.mp4", ""},
		{"a", ""},
	}

	for _, tt := range tests {
		if got := AudioMIMEType(tt.path); got != tt.want {
			t.Errorf("AudioMIMEType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{9 * time.Second, "00:09"},
		{2*time.Minute + 3*time.Second, "02:03"},
		{time.Hour + time.Minute, "01:01:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPermissionErrorMessage(t *testing.T) {
	err := &PermissionError{Err: errors.New("no device")}
	if err.Error() != "microphone access denied: no device" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("PermissionError should match ErrPermissionDenied")
	}
}
