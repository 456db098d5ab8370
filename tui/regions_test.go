package tui

import (
	"testing"

	"kalasetu/pipeline"
)

func TestRegionsFor(t *testing.T) {
	tests := []struct {
		phase   pipeline.Phase
		message string
		want    Regions
	}{
		{pipeline.PhaseIdle, "", Regions{Placeholder: true}},
		{pipeline.PhaseTranscribing, "", Regions{Loading: true, Status: "Transcribing audio...", Placeholder: true}},
		{pipeline.PhaseGenerating, "", Regions{Loading: true, Status: "Generating marketing content...", Placeholder: true}},
		{pipeline.PhaseSuccess, "", Regions{Results: true}},
		{pipeline.PhaseError, "Server responded with status: 500", Regions{Placeholder: true, Error: true, ErrorMessage: "Server responded with status: 500"}},
		{pipeline.PhaseError, "", Regions{Placeholder: true, Error: true, ErrorMessage: pipeline.Fallback}},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			got := RegionsFor(tt.phase, tt.message)
			if got != tt.want {
				t.Errorf("RegionsFor(%v) = %+v, want %+v", tt.phase, got, tt.want)
			}
		})
	}
}

func TestRegionsPlaceholderOrResults(t *testing.T) {
	phases := []pipeline.Phase{
		pipeline.PhaseIdle,
		pipeline.PhaseTranscribing,
		pipeline.PhaseGenerating,
		pipeline.PhaseSuccess,
		pipeline.PhaseError,
	}

	for _, p := range phases {
		r := RegionsFor(p, "boom")

		if r.Placeholder == r.Results {
			t.Errorf("%v: placeholder=%v results=%v, want exactly one", p, r.Placeholder, r.Results)
		}
		if r.Error && r.Results {
			t.Errorf("%v: error and results both visible", p)
		}
		if r.Loading && !r.Placeholder {
			t.Errorf("%v: loading without placeholder", p)
		}
		if r.Loading && r.Error {
			t.Errorf("%v: loading with error", p)
		}
	}
}

func TestUIStateLoadingClearsResults(t *testing.T) {
	ui := NewUIState()
	if !ui.Regions().Placeholder {
		t.Fatal("initial state should show the placeholder")
	}

	ui.Apply(pipeline.Event{RunID: "run-1", Phase: pipeline.PhaseSuccess, Result: &pipeline.GenerationResult{
		Title:     "Indigo Stole",
		Captions:  []string{"a", "b", "c"},
		ImageURLs: []string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"},
	}})
	if len(ui.Sections()) != 4 {
		t.Fatalf("sections = %d, want 4", len(ui.Sections()))
	}
	if ui.Result() == nil || ui.RunID() != "run-1" {
		t.Error("result and run id should be kept on success")
	}

	ui.Apply(pipeline.Event{RunID: "run-2", Phase: pipeline.PhaseGenerating})
	if ui.Sections() != nil || ui.Result() != nil {
		t.Error("entering a loading phase must clear previous results")
	}
	if r := ui.Regions(); !r.Loading || r.Results {
		t.Errorf("regions = %+v", r)
	}

	ui.Apply(pipeline.Event{RunID: "run-2", Phase: pipeline.PhaseError, Message: "Upstream unavailable"})
	if r := ui.Regions(); !r.Error || r.ErrorMessage != "Upstream unavailable" {
		t.Errorf("regions = %+v", r)
	}

	ui.Apply(pipeline.Event{RunID: "run-3", Phase: pipeline.PhaseTranscribing})
	if r := ui.Regions(); r.Error {
		t.Error("entering a loading phase must hide the previous error")
	}
}
