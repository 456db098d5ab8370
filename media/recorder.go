package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const readChunkSize = 32 * 1024

// Backend opens a live capture stream from a microphone
type Backend interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open capture. Read yields encoded audio until the encoder
// exits; Stop asks it to finish and returns immediately
type Stream interface {
	io.Reader
	Stop()
	Wait() error
	MIMEType() string
}

// Finalization resolves once a stopped recording has been fully flushed
type Finalization struct {
	done    chan struct{}
	payload AudioPayload
	err     error
}

func newFinalization() *Finalization {
	return &Finalization{done: make(chan struct{})}
}

func (f *Finalization) resolve(payload AudioPayload, err error) {
	f.payload = payload
	f.err = err
	close(f.done)
}

// Done is closed when the recording is finalized
func (f *Finalization) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the recording is finalized or ctx ends
func (f *Finalization) Wait(ctx context.Context) (AudioPayload, error) {
	select {
	case <-f.done:
		return f.payload, f.err
	case <-ctx.Done():
		return AudioPayload{}, ctx.Err()
	}
}

// Recorder owns the single microphone capture session
type Recorder struct {
	backend Backend
	now     func() time.Time

	mu      sync.Mutex
	active  Stream
	pending *Finalization
	started time.Time

	// collected is set once Stop has handed out pending
	collected bool
}

// NewRecorder creates a recorder reading from backend
func NewRecorder(backend Backend) *Recorder {
	return &Recorder{
		backend: backend,
		now:     time.Now,
	}
}

// Recording reports whether a capture session is open
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Elapsed returns how long the current session has been recording
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0
	}
	return r.now().Sub(r.started)
}

// Start opens the microphone and begins accumulating audio. It fails with
// ErrAlreadyRecording while a session is open or still being finalized, and
// with a *PermissionError when the microphone cannot be used
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrAlreadyRecording
	}
	if r.pending != nil {
		select {
		case <-r.pending.Done():
		default:
			return ErrAlreadyRecording
		}
	}

	stream, err := r.backend.Open(ctx)
	if err != nil {
		var permErr *PermissionError
		if errors.As(err, &permErr) {
			return err
		}
		return &PermissionError{Err: err}
	}

	fin := newFinalization()
	r.active = stream
	r.pending = fin
	r.collected = false
	r.started = r.now()

	go r.drain(stream, fin, r.started)

	log.Debug().Msg("recording started")
	return nil
}

// Stop ends the current session and returns its pending finalization. It
// never blocks. When the encoder already exited on its own, Stop still
// returns that session's finalization once; it returns nil when there is
// nothing left to collect
func (r *Recorder) Stop() *Finalization {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.active != nil:
		r.active.Stop()
		r.active = nil
		log.Debug().Dur("elapsed", r.now().Sub(r.started)).Msg("recording stopped")
	case r.pending == nil || r.collected:
		return nil
	default:
		log.Debug().Msg("recording had already ended")
	}

	r.collected = true
	return r.pending
}

// Pending returns the finalization of the current or most recent session,
// nil before the first Start. It resolves whether the session ends through
// Stop or because the encoder exited
func (r *Recorder) Pending() *Finalization {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// drain collects chunks until the encoder closes its output, then resolves fin
func (r *Recorder) drain(stream Stream, fin *Finalization, started time.Time) {
	var chunks [][]byte
	total := 0

	for {
		buf := make([]byte, readChunkSize)
		n, err := stream.Read(buf)
		if n > 0 {
			chunks = append(chunks, buf[:n])
			total += n
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn().Err(err).Msg("capture read failed")
			}
			break
		}
	}

	waitErr := stream.Wait()
	ended := r.now()

	r.mu.Lock()
	// The encoder exited without Stop being called
	if r.active == stream {
		r.active = nil
		log.Warn().Err(waitErr).Int("bytes", total).Msg("encoder exited before stop")
	}
	r.mu.Unlock()

	if waitErr != nil {
		fin.resolve(AudioPayload{}, fmt.Errorf("recording failed: %w", waitErr))
		return
	}
	if total == 0 {
		fin.resolve(AudioPayload{}, ErrEmptyRecording)
		return
	}

	data := make([]byte, 0, total)
	for _, c := range chunks {
		data = append(data, c...)
	}

	log.Debug().Int("bytes", total).Int("chunks", len(chunks)).Msg("recording finalized")
	fin.resolve(AudioPayload{
		Data:     data,
		MIMEType: stream.MIMEType(),
		Duration: ended.Sub(started),
	}, nil)
}
