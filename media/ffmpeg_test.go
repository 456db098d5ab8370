package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func skipWithoutBash(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts stand in for ffmpeg")
	}
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
}

func TestFFmpegBackendRecordAndStop(t *testing.T) {
	skipWithoutBash(t)

	// Writes a header, then the trailer only once interrupted, like ffmpeg closing a container
	script := writeScript(t, "capture.sh", `#!/usr/bin/env bash
trap 'printf "trailer"; exit 255' INT
printf 'header'
while true; do sleep 0.05; done
`)
	rec := NewRecorder(NewFFmpegBackend(script, "pulse", "default"))

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	fin := rec.Stop()
	if fin == nil {
		t.Fatal("Stop() returned nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload, err := fin.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if string(payload.Data) != "headertrailer" {
		t.Errorf("Data = %q, want headertrailer", payload.Data)
	}
	if payload.MIMEType != RecordingMIMEType {
		t.Errorf("MIMEType = %q", payload.MIMEType)
	}
}

func TestFFmpegBackendEarlyExit(t *testing.T) {
	skipWithoutBash(t)

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'Connection refused' 1>&2\nexit 1\n")
	backend := NewFFmpegBackend(script, "pulse", "default")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := backend.Open(ctx)
	if err == nil {
		t.Fatal("expected early exit error")
	}
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("error = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(err.Error(), "exited before capture started") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "Connection refused") {
		t.Errorf("stderr missing from error: %v", err)
	}
}

func TestFFmpegBackendMissingBinary(t *testing.T) {
	backend := NewFFmpegBackend(filepath.Join(t.TempDir(), "no-ffmpeg"), "", "")

	_, err := backend.Open(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Open() error = %v, want ErrPermissionDenied", err)
	}
}

func TestFFmpegBackendArgs(t *testing.T) {
	backend := NewFFmpegBackend("", "avfoundation", ":1")
	args := strings.Join(backend.args(), " ")

	for _, want := range []string{"-f avfoundation", "-i :1", "-ac 1", "-ar 48000", "-c:a libopus", "-f webm -"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if backend.Command != "ffmpeg" {
		t.Errorf("Command = %q, want ffmpeg", backend.Command)
	}
}

func TestNormalizeStopErrExitErrorIsIgnored(t *testing.T) {
	skipWithoutBash(t)

	err := exec.Command("bash", "-c", "exit 1").Run()
	if err == nil {
		t.Fatalf("expected command to fail")
	}
	if got := normalizeStopErr(err); got != nil {
		t.Fatalf("expected nil for exit error, got %v", got)
	}
	other := errors.New("pipe broken")
	if got := normalizeStopErr(other); got != other {
		t.Errorf("normalizeStopErr(%v) = %v", other, got)
	}
}

func TestPlayerPipesAudio(t *testing.T) {
	skipWithoutBash(t)

	out := filepath.Join(t.TempDir(), "played")
	script := writeScript(t, "ffplay.sh", "#!/usr/bin/env bash\ncat > "+out+"\n")

	err := NewPlayer(script).Play(context.Background(), AudioPayload{Data: []byte("opus-bytes")})
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "opus-bytes" {
		t.Errorf("player received %q", data)
	}
}

func TestPlayerEmpty(t *testing.T) {
	if err := NewPlayer("").Play(context.Background(), AudioPayload{}); !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("Play() error = %v, want ErrEmptyRecording", err)
	}
}
