package pipeline

import (
	"time"

	"kalasetu/api"
)

// Phase is where the current run stands
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTranscribing
	PhaseGenerating
	PhaseSuccess
	PhaseError
)

// Loading status texts
const (
	StatusTranscribing = "Transcribing audio..."
	StatusGenerating   = "Generating marketing content..."
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseGenerating:
		return "generating"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Loading reports whether a remote call is in flight during p
func (p Phase) Loading() bool {
	return p == PhaseTranscribing || p == PhaseGenerating
}

// Terminal reports whether p ends a run
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}

// StatusText returns the loading message for p, empty for other phases
func (p Phase) StatusText() string {
	switch p {
	case PhaseTranscribing:
		return StatusTranscribing
	case PhaseGenerating:
		return StatusGenerating
	default:
		return ""
	}
}

// GenerationResult is the marketing content produced by one run
type GenerationResult struct {
	Title     string
	Story     string
	Captions  []string
	ImageURLs []string
}

func newGenerationResult(resp *api.GenerateResponse) *GenerationResult {
	return &GenerationResult{
		Title:     resp.TextData.ProductTitle,
		Story:     resp.TextData.ProductStory,
		Captions:  append([]string(nil), resp.TextData.SocialMediaCaptions...),
		ImageURLs: append([]string(nil), resp.ImageURLs...),
	}
}

// Event is one phase change of a run
type Event struct {
	RunID string
	Phase Phase
	At    time.Time

	// Status is the loading text for Transcribing and Generating
	Status string

	// Transcript is set on the Generating event of a voice run
	Transcript string

	// Result is set on Success
	Result *GenerationResult

	// Message and Err are set on Error
	Message string
	Err     error
}

// Reporter receives phase changes in order
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) {
	f(e)
}
