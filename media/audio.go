package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RecordingMIMEType is the container/codec produced by live capture
const RecordingMIMEType = "audio/webm;codecs=opus"

// MaxAudioFileSize is the largest audio file accepted from disk (25MB)
const MaxAudioFileSize = 25 * 1024 * 1024

var (
	// ErrPermissionDenied means the microphone could not be opened
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrAlreadyRecording is returned by Start while a capture session is open
	ErrAlreadyRecording = errors.New("a recording is already in progress")

	// ErrEmptyRecording means the encoder exited without producing audio
	ErrEmptyRecording = errors.New("no audio was captured")
)

// PermissionError wraps the reason the microphone could not be used
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return ErrPermissionDenied.Error()
	}
	return fmt.Sprintf("%s: %v", ErrPermissionDenied, e.Err)
}

func (e *PermissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPermissionDenied}
	}
	return []error{ErrPermissionDenied, e.Err}
}

// AudioPayload is one finished recording
type AudioPayload struct {
	Data     []byte
	MIMEType string
	Duration time.Duration
}

// Empty reports whether the payload carries no audio
func (a AudioPayload) Empty() bool {
	return len(a.Data) == 0
}

// Base64 returns the audio encoded for the transcription request
func (a AudioPayload) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// Summary returns a short description for the recording preview
func (a AudioPayload) Summary() string {
	if a.Empty() {
		return "no recording"
	}
	if a.Duration > 0 {
		return fmt.Sprintf("%s, %s", FormatDuration(a.Duration), FormatSize(int64(len(a.Data))))
	}
	return FormatSize(int64(len(a.Data)))
}

// LoadAudioFile reads a pre-recorded story from disk
func LoadAudioFile(path string) (AudioPayload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return AudioPayload{}, fmt.Errorf("failed to access audio file: %w", err)
	}
	if info.IsDir() {
		return AudioPayload{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxAudioFileSize {
		return AudioPayload{}, fmt.Errorf("audio file size %s exceeds maximum %s", FormatSize(info.Size()), FormatSize(MaxAudioFileSize))
	}

	mimeType := AudioMIMEType(path)
	if mimeType == "" {
		return AudioPayload{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return AudioPayload{}, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(data) == 0 {
		return AudioPayload{}, ErrEmptyRecording
	}

	return AudioPayload{Data: data, MIMEType: mimeType}, nil
}

// AudioMIMEType returns the MIME type for a supported audio extension
func AudioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	default:
		return ""
	}
}

// FormatDuration formats a duration as MM:SS or HH:MM:SS
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatSize returns a human-readable byte count
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
