package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Player previews recordings through ffplay
type Player struct {
	Command string
}

// NewPlayer creates a player for the given ffplay binary
func NewPlayer(command string) *Player {
	if command == "" {
		command = "ffplay"
	}
	return &Player{Command: command}
}

// Play pipes the payload to ffplay and blocks until playback ends or ctx is canceled
func (p *Player) Play(ctx context.Context, audio AudioPayload) error {
	if audio.Empty() {
		return ErrEmptyRecording
	}

	cmd := exec.CommandContext(ctx, p.Command,
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "error",
		"-i", "-",
	)
	cmd.Stdin = bytes.NewReader(audio.Data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("ffplay not found: %w", err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("playback failed: %w: %s", err, msg)
		}
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
