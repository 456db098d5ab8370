package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" DEBUG ", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitFiltersBelowLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Init("warn", &buf)

	log.Info().Msg("quiet")
	log.Warn().Str("run_id", "abc").Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message should be filtered, got %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "run_id") {
		t.Errorf("warn message missing, got %q", out)
	}
}

func TestInitFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	f, err := InitFile("info")
	if err != nil {
		t.Fatalf("InitFile() error = %v", err)
	}
	log.Info().Msg("studio started")
	f.Close()

	data, err := os.ReadFile(filepath.Join(state, "kalasetu", "kalasetu.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "studio started") {
		t.Errorf("log file = %q, want message", data)
	}
}
