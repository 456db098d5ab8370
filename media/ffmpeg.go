package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// startupGrace is how long ffmpeg must stay alive before capture counts as started
	startupGrace = 250 * time.Millisecond

	// stopGrace is how long ffmpeg gets to flush the container after SIGINT
	stopGrace = 2 * time.Second
)

// FFmpegBackend records the microphone with ffmpeg and encodes Opus in WebM
type FFmpegBackend struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
}

// NewFFmpegBackend creates a backend for the given ffmpeg binary and input
func NewFFmpegBackend(command, inputFormat, inputDevice string) *FFmpegBackend {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegBackend{
		Command:     command,
		InputFormat: inputFormat,
		InputDevice: inputDevice,
		SampleRate:  48000,
	}
}

func (b *FFmpegBackend) args() []string {
	format := b.InputFormat
	if format == "" {
		format = "pulse"
	}
	device := b.InputDevice
	if device == "" {
		device = "default"
	}
	rate := b.SampleRate
	if rate <= 0 {
		rate = 48000
	}

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", format,
		"-i", device,
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-c:a", "libopus",
		"-b:a", "64k",
		"-f", "webm",
		"-",
	}
}

// Open starts ffmpeg. A missing binary or an encoder that exits during
// startup is reported as a *PermissionError
func (b *FFmpegBackend) Open(ctx context.Context) (Stream, error) {
	path, err := exec.LookPath(b.Command)
	if err != nil {
		return nil, &PermissionError{Err: fmt.Errorf("ffmpeg not found: %w", err)}
	}

	// A plain pipe keeps reads independent of cmd.Wait
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create capture pipe: %w", err)
	}

	cmd := exec.Command(path, b.args()...)
	stderr := &syncBuffer{}
	cmd.Stdout = pw
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &PermissionError{Err: fmt.Errorf("failed to start ffmpeg: %w", err)}
	}
	pw.Close()

	s := &ffmpegStream{
		stdout:  pr,
		stderr:  stderr,
		process: cmd.Process,
		exit:    make(chan struct{}),
	}
	go func() {
		s.exitErr = cmd.Wait()
		close(s.exit)
	}()

	select {
	case <-s.exit:
		pr.Close()
		reason := strings.TrimSpace(stderr.String())
		if s.exitErr != nil {
			return nil, &PermissionError{Err: fmt.Errorf("ffmpeg exited before capture started: %w: %s", s.exitErr, reason)}
		}
		return nil, &PermissionError{Err: errors.New("ffmpeg exited before capture started")}
	case <-ctx.Done():
		_ = s.process.Kill()
		<-s.exit
		pr.Close()
		return nil, ctx.Err()
	case <-time.After(startupGrace):
	}

	return s, nil
}

type ffmpegStream struct {
	stdout *os.File
	stderr *syncBuffer

	process *os.Process
	exit    chan struct{}
	exitErr error

	stopOnce sync.Once
	stopped  atomic.Bool
}

// Read returns io.EOF once ffmpeg has exited and the pipe is drained
func (s *ffmpegStream) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err != nil {
		s.stdout.Close()
	}
	return n, err
}

func (s *ffmpegStream) MIMEType() string {
	return RecordingMIMEType
}

// Stop sends SIGINT so ffmpeg finalizes the container, escalating to kill
// if it has not exited within stopGrace
func (s *ffmpegStream) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		if runtime.GOOS == "windows" {
			// No SIGINT delivery on Windows
			_ = s.process.Kill()
			return
		}
		_ = s.process.Signal(os.Interrupt)
		go func() {
			timer := time.NewTimer(stopGrace)
			defer timer.Stop()
			select {
			case <-s.exit:
			case <-timer.C:
				_ = s.process.Kill()
			}
		}()
	})
}

// Wait blocks until ffmpeg exits. Exit codes caused by Stop are not errors
func (s *ffmpegStream) Wait() error {
	<-s.exit
	err := s.exitErr
	if err != nil && s.stopped.Load() {
		err = normalizeStopErr(err)
	}
	if err != nil && s.stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return err
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// syncBuffer is a bytes.Buffer safe for the writer goroutine in exec
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// CheckFFmpeg checks that the configured ffmpeg runs and returns its version line
func CheckFFmpeg(command string) (string, error) {
	if command == "" {
		command = "ffmpeg"
	}
	output, err := exec.Command(command, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found: %w\n\n%s", err, FFmpegInstallHelp())
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0]), nil
	}
	return "ffmpeg installed", nil
}

// FFmpegInstallHelp returns platform-specific installation instructions
func FFmpegInstallHelp() string {
	switch runtime.GOOS {
	case "darwin":
		return `Install FFmpeg on macOS:
  brew install ffmpeg`
	case "linux":
		return `Install FFmpeg on Linux:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg`
	case "windows":
		return `Install FFmpeg on Windows:
  winget install ffmpeg
Then add to PATH.`
	default:
		return `Please install FFmpeg from: https://ffmpeg.org/download.html`
	}
}
