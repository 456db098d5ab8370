// Package pipeline runs a submission through the remote services: an
// optional transcription call followed by content generation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"kalasetu/api"
	"kalasetu/input"
)

// Transcriber converts recorded audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, req *api.TranscribeRequest) (*api.TranscribeResponse, error)
}

// Generator produces marketing content from an image and a story
type Generator interface {
	Generate(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResponse, error)
}

// Orchestrator runs at most one submission at a time
type Orchestrator struct {
	transcriber Transcriber
	generator   Generator
	reporter    Reporter

	transcribeTimeout time.Duration
	generateTimeout   time.Duration
	newRunID          func() string
	now               func() time.Time

	mu      sync.Mutex
	running bool
	phase   Phase
}

// Option configures the Orchestrator
type Option func(*Orchestrator)

// WithTimeouts bounds each remote call. Zero leaves a call unbounded
func WithTimeouts(transcribe, generate time.Duration) Option {
	return func(o *Orchestrator) {
		o.transcribeTimeout = transcribe
		o.generateTimeout = generate
	}
}

// WithReporter sets where phase changes are sent
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) {
		o.reporter = r
	}
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(t Transcriber, g Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transcriber: t,
		generator:   g,
		reporter:    ReporterFunc(func(Event) {}),
		newRunID:    uuid.NewString,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Phase returns the phase of the current or most recent run
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Busy reports whether a run is in flight
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Submit validates state in its active mode and runs it. It returns ErrBusy
// while another run is in flight and a *input.ValidationError for incomplete
// input; neither changes the phase nor reaches the network
func (o *Orchestrator) Submit(ctx context.Context, state *input.State) (*GenerationResult, error) {
	if !o.acquire() {
		return nil, ErrBusy
	}

	sub, err := state.Snapshot()
	if err != nil {
		o.release()
		return nil, err
	}

	return o.run(ctx, sub)
}

// Run validates and executes a submission built without a State
func (o *Orchestrator) Run(ctx context.Context, sub input.Submission) (*GenerationResult, error) {
	if !o.acquire() {
		return nil, ErrBusy
	}
	if err := sub.Validate(); err != nil {
		o.release()
		return nil, err
	}
	sub.Story = strings.TrimSpace(sub.Story)
	return o.run(ctx, sub)
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}

func (o *Orchestrator) run(ctx context.Context, sub input.Submission) (result *GenerationResult, err error) {
	runID := o.newRunID()
	logger := log.With().Str("run_id", runID).Str("mode", sub.Mode.String()).Logger()

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, o.abort(runID, p, logger)
		}
	}()

	return o.execute(ctx, sub, runID, logger)
}

func (o *Orchestrator) execute(ctx context.Context, sub input.Submission, runID string, logger zerolog.Logger) (*GenerationResult, error) {
	logger.Info().Msg("run started")
	start := o.now()

	story := sub.Story
	transcript := ""

	if sub.Mode == input.ModeVoice {
		o.enter(Event{RunID: runID, Phase: PhaseTranscribing, Status: StatusTranscribing})

		text, err := o.transcribe(ctx, sub, logger)
		if err != nil {
			return nil, o.fail(runID, err, logger)
		}
		// Only this run uses the transcript; typed text in State is untouched
		story = text
		transcript = text
	}

	o.enter(Event{RunID: runID, Phase: PhaseGenerating, Status: StatusGenerating, Transcript: transcript})

	result, err := o.generate(ctx, sub.Image, story, logger)
	if err != nil {
		return nil, o.fail(runID, err, logger)
	}

	logger.Info().
		Dur("elapsed", o.now().Sub(start)).
		Int("captions", len(result.Captions)).
		Int("images", len(result.ImageURLs)).
		Msg("run succeeded")

	o.finish(Event{RunID: runID, Phase: PhaseSuccess, Result: result})
	return result, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, sub input.Submission, logger zerolog.Logger) (string, error) {
	if o.transcribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.transcribeTimeout)
		defer cancel()
	}

	logger.Debug().Int("audio_bytes", len(sub.Audio.Data)).Str("language", sub.Language).Msg("transcribing")

	resp, err := o.transcriber.Transcribe(ctx, &api.TranscribeRequest{
		AudioBase64:  sub.Audio.Base64(),
		LanguageCode: sub.Language,
	})
	if err != nil {
		return "", &TranscriptionError{Reason: ReasonRequestFailed, Err: err}
	}

	text := strings.TrimSpace(resp.Transcript)
	if text == "" {
		return "", &TranscriptionError{Reason: ReasonEmptyTranscript}
	}
	return text, nil
}

func (o *Orchestrator) generate(ctx context.Context, image *input.ImagePayload, story string, logger zerolog.Logger) (*GenerationResult, error) {
	if o.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.generateTimeout)
		defer cancel()
	}

	logger.Debug().Int("image_bytes", len(image.Data)).Int("story_chars", len(story)).Msg("generating")

	resp, err := o.generator.Generate(ctx, &api.GenerateRequest{
		ImageBase64: image.Base64(),
		Story:       story,
	})
	if err != nil {
		return nil, newGenerationError(err)
	}
	return newGenerationResult(resp), nil
}

// enter moves to a loading phase and reports it
func (o *Orchestrator) enter(e Event) {
	e.At = o.now()
	o.mu.Lock()
	o.phase = e.Phase
	o.mu.Unlock()
	o.reporter.Report(e)
}

// finish ends the run. The orchestrator accepts new submissions before the
// terminal event is reported
func (o *Orchestrator) finish(e Event) {
	e.At = o.now()
	o.mu.Lock()
	o.phase = e.Phase
	o.running = false
	o.mu.Unlock()
	o.reporter.Report(e)
}

// abort ends a run that panicked in a service or reporter so the
// orchestrator accepts submissions again
func (o *Orchestrator) abort(runID string, p any, logger zerolog.Logger) error {
	err := fmt.Errorf("internal error: %v", p)
	logger.Error().Err(err).Msg("run panicked")

	o.mu.Lock()
	reported := !o.running
	o.phase = PhaseError
	o.running = false
	o.mu.Unlock()

	// A panic from the terminal report itself is not reported again
	if !reported {
		o.report(Event{RunID: runID, Phase: PhaseError, At: o.now(), Message: UserMessage(err), Err: err})
	}
	return err
}

// report delivers e and swallows a panicking reporter
func (o *Orchestrator) report(e Event) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("run_id", e.RunID).Msg("reporter panicked")
		}
	}()
	o.reporter.Report(e)
}

func (o *Orchestrator) fail(runID string, err error, logger zerolog.Logger) error {
	msg := UserMessage(err)
	logger.Warn().Err(err).Str("message", msg).Msg("run failed")
	o.finish(Event{RunID: runID, Phase: PhaseError, Message: msg, Err: err})
	return err
}
