package tui

import (
	"kalasetu/pipeline"
	"kalasetu/render"
)

// Regions is what the result area shows. Exactly one of Placeholder,
// Results and Error is set; Loading only appears with Placeholder
type Regions struct {
	Loading bool
	Status  string

	Placeholder bool
	Results     bool

	Error        bool
	ErrorMessage string
}

// RegionsFor maps a phase to its visible regions. message is only used
// for PhaseError
func RegionsFor(phase pipeline.Phase, message string) Regions {
	switch phase {
	case pipeline.PhaseTranscribing, pipeline.PhaseGenerating:
		return Regions{Loading: true, Status: phase.StatusText(), Placeholder: true}
	case pipeline.PhaseSuccess:
		return Regions{Results: true}
	case pipeline.PhaseError:
		if message == "" {
			message = pipeline.Fallback
		}
		return Regions{Placeholder: true, Error: true, ErrorMessage: message}
	default:
		return Regions{Placeholder: true}
	}
}

// UIState follows pipeline events and keeps the rendered sections of the
// latest successful run
type UIState struct {
	phase    pipeline.Phase
	regions  Regions
	runID    string
	sections []render.Section
	result   *pipeline.GenerationResult
}

// NewUIState starts idle with the placeholder shown
func NewUIState() *UIState {
	return &UIState{regions: RegionsFor(pipeline.PhaseIdle, "")}
}

// Apply moves to the phase of e. Entering a loading phase clears any
// previous results and error
func (s *UIState) Apply(e pipeline.Event) {
	s.phase = e.Phase
	s.runID = e.RunID
	s.regions = RegionsFor(e.Phase, e.Message)

	switch e.Phase {
	case pipeline.PhaseTranscribing, pipeline.PhaseGenerating, pipeline.PhaseError, pipeline.PhaseIdle:
		s.sections = nil
		s.result = nil
	case pipeline.PhaseSuccess:
		s.result = e.Result
		s.sections = render.Render(e.Result)
	}
}

func (s *UIState) Phase() pipeline.Phase {
	return s.phase
}

func (s *UIState) Regions() Regions {
	return s.regions
}

func (s *UIState) RunID() string {
	return s.runID
}

// Sections returns the rendered result, nil unless the results region is shown
func (s *UIState) Sections() []render.Section {
	return s.sections
}

func (s *UIState) Result() *pipeline.GenerationResult {
	return s.result
}
