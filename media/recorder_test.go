package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeStream emits whatever the test writes, plus tail once stopped
type fakeStream struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	tail    []byte
	waitErr error

	stopOnce sync.Once
	stops    int
	mu       sync.Mutex
}

func newFakeStream(tail string) *fakeStream {
	pr, pw := io.Pipe()
	return &fakeStream{pr: pr, pw: pw, tail: []byte(tail)}
}

func (s *fakeStream) Read(p []byte) (int, error) { return s.pr.Read(p) }
func (s *fakeStream) MIMEType() string           { return RecordingMIMEType }
func (s *fakeStream) Wait() error                { return s.waitErr }

func (s *fakeStream) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.stopOnce.Do(func() {
		go func() {
			// Flush arrives after Stop has returned
			time.Sleep(20 * time.Millisecond)
			if len(s.tail) > 0 {
				s.pw.Write(s.tail)
			}
			s.pw.Close()
		}()
	})
}

// crash ends the stream without Stop
func (s *fakeStream) crash(err error) {
	s.waitErr = err
	s.pw.Close()
}

type fakeBackend struct {
	streams []*fakeStream
	err     error
	opens   int
}

func (b *fakeBackend) Open(ctx context.Context) (Stream, error) {
	b.opens++
	if b.err != nil {
		return nil, b.err
	}
	s := b.streams[0]
	b.streams = b.streams[1:]
	return s, nil
}

func waitFinalization(t *testing.T, fin *Finalization) (AudioPayload, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return fin.Wait(ctx)
}

func TestRecorderCapturesUntilFinalized(t *testing.T) {
	stream := newFakeStream("-tail")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream}})

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !rec.Recording() {
		t.Fatal("Recording() = false after Start")
	}

	stream.pw.Write([]byte("chunk1"))
	stream.pw.Write([]byte("chunk2"))

	fin := rec.Stop()
	if fin == nil {
		t.Fatal("Stop() returned nil while recording")
	}
	if rec.Recording() {
		t.Error("Recording() = true after Stop")
	}

	select {
	case <-fin.Done():
		t.Fatal("finalization resolved before the stream flushed")
	default:
	}

	payload, err := waitFinalization(t, fin)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if string(payload.Data) != "chunk1chunk2-tail" {
		t.Errorf("Data = %q, want all chunks including the flushed tail", payload.Data)
	}
	if payload.MIMEType != RecordingMIMEType {
		t.Errorf("MIMEType = %q", payload.MIMEType)
	}
}

func TestRecorderStopWhileIdle(t *testing.T) {
	rec := NewRecorder(&fakeBackend{})

	if fin := rec.Stop(); fin != nil {
		t.Error("Stop() while idle should return nil")
	}
}

func TestRecorderStartTwice(t *testing.T) {
	first := newFakeStream("")
	backend := &fakeBackend{streams: []*fakeStream{first, newFakeStream("")}}
	rec := NewRecorder(backend)

	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := rec.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if backend.opens != 1 {
		t.Errorf("backend opened %d times, want 1", backend.opens)
	}
	if first.stops != 0 {
		t.Error("active session should be left untouched")
	}

	first.pw.Write([]byte("x"))
	fin := rec.Stop()
	if _, err := waitFinalization(t, fin); err != nil {
		t.Fatal(err)
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Errorf("Start() after finalization error = %v", err)
	}
}

func TestRecorderPermissionDenied(t *testing.T) {
	rec := NewRecorder(&fakeBackend{err: errors.New("device busy")})

	err := rec.Start(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Start() error = %v, want ErrPermissionDenied", err)
	}
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Errorf("error = %T, want *PermissionError", err)
	}
	if rec.Recording() {
		t.Error("Recording() = true after failed Start")
	}
}

func TestRecorderEmptyCapture(t *testing.T) {
	stream := newFakeStream("")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream}})

	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := waitFinalization(t, rec.Stop())
	if !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("Wait() error = %v, want ErrEmptyRecording", err)
	}
}

// waitEnded polls until the recorder notices the encoder has exited
func waitEnded(t *testing.T, rec *Recorder) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for rec.Recording() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.Recording() {
		t.Fatal("recorder should leave the recording state when the encoder exits")
	}
}

func TestRecorderEncoderCrash(t *testing.T) {
	stream := newFakeStream("")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream}})

	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	stream.pw.Write([]byte("partial"))
	stream.crash(errors.New("device unplugged"))
	waitEnded(t, rec)

	fin := rec.Stop()
	if fin == nil {
		t.Fatal("Stop() after the encoder exited should return its finalization")
	}
	if stream.stops != 0 {
		t.Error("an exited stream should not be stopped again")
	}
	_, err := waitFinalization(t, fin)
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Errorf("Wait() error = %v, want the encoder failure", err)
	}

	if again := rec.Stop(); again != nil {
		t.Error("a collected finalization should not be returned twice")
	}
}

func TestRecorderEncoderExitKeepsPayload(t *testing.T) {
	stream := newFakeStream("")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream, newFakeStream("")}})

	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	stream.pw.Write([]byte("complete-opus"))
	stream.pw.Close()
	waitEnded(t, rec)

	payload, err := waitFinalization(t, rec.Stop())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if string(payload.Data) != "complete-opus" {
		t.Errorf("Data = %q, want everything the encoder wrote", payload.Data)
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Errorf("Start() after a self-ended session error = %v", err)
	}
}

func TestRecorderPending(t *testing.T) {
	stream := newFakeStream("-tail")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream}})

	if rec.Pending() != nil {
		t.Error("Pending() before Start should be nil")
	}
	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	fin := rec.Pending()
	if fin == nil {
		t.Fatal("Pending() should return the session finalization")
	}

	stream.pw.Write([]byte("audio"))
	if got := rec.Stop(); got != fin {
		t.Error("Stop() should return the same finalization as Pending()")
	}
	payload, err := waitFinalization(t, fin)
	if err != nil || string(payload.Data) != "audio-tail" {
		t.Errorf("Wait() = %q, %v", payload.Data, err)
	}
}

func TestRecorderDuration(t *testing.T) {
	stream := newFakeStream("")
	rec := NewRecorder(&fakeBackend{streams: []*fakeStream{stream}})

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	rec.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(7 * time.Second)
	}

	if err := rec.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	stream.pw.Write([]byte("audio"))
	payload, err := waitFinalization(t, rec.Stop())
	if err != nil {
		t.Fatal(err)
	}
	if payload.Duration != 7*time.Second {
		t.Errorf("Duration = %v, want 7s", payload.Duration)
	}
}

func TestFinalizationWaitContext(t *testing.T) {
	fin := newFinalization()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fin.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}
