// Package input holds what the user has supplied for a run: the product
// photo, the active input mode and the typed or recorded story.
package input

import (
	"strings"
	"sync"

	"kalasetu/media"
)

// Mode selects which story source is authoritative at submit time
type Mode int

const (
	ModeVoice Mode = iota
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeVoice:
		return "voice"
	case ModeText:
		return "text"
	default:
		return "unknown"
	}
}

// Toggle returns the other mode
func (m Mode) Toggle() Mode {
	if m == ModeVoice {
		return ModeText
	}
	return ModeVoice
}

// Validation failures, in the order they are checked
const (
	MsgImageRequired = "Please upload an image."
	MsgStoryRequired = "Please type a story for your product."
	MsgAudioRequired = "Please record a story for your product."
)

// ValidationError names the first requirement a submission does not meet
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Submission is an immutable snapshot of State taken at submit time
type Submission struct {
	Image    *ImagePayload
	Mode     Mode
	Story    string
	Audio    media.AudioPayload
	Language string
}

// Validate applies the same checks as State.Validate in the snapshot's mode
func (s Submission) Validate() error {
	return validate(s.Image, s.Mode, s.Story, s.Audio)
}

// State is the mutable input for the next run. It is safe for concurrent use
type State struct {
	mu sync.RWMutex

	image    *ImagePayload
	mode     Mode
	story    string
	audio    media.AudioPayload
	language string
}

// NewState creates an empty state in voice mode
func NewState(language string) *State {
	return &State{mode: ModeVoice, language: language}
}

// SetImage replaces any previously selected image
func (s *State) SetImage(img *ImagePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = img
}

// ClearImage removes the selected image
func (s *State) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
}

// Image returns the selected image, or nil
func (s *State) Image() *ImagePayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// SetMode switches the active mode. Story text and audio are both kept
func (s *State) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// Mode returns the active mode
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetStory stores the typed story
func (s *State) SetStory(story string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.story = story
}

// Story returns the typed story
func (s *State) Story() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.story
}

// SetAudio replaces the previous recording
func (s *State) SetAudio(audio media.AudioPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = audio
}

// Audio returns the latest recording
func (s *State) Audio() media.AudioPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audio
}

// SetLanguage sets the transcription language code
func (s *State) SetLanguage(language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = language
}

// Language returns the transcription language code
func (s *State) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// Validate checks the state for submission in the given mode. The image is
// checked before the mode-specific story source
func (s *State) Validate(mode Mode) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validate(s.image, mode, s.story, s.audio)
}

// Snapshot validates the state in its active mode and copies it for a run
func (s *State) Snapshot() (Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := validate(s.image, s.mode, s.story, s.audio); err != nil {
		return Submission{}, err
	}
	return Submission{
		Image:    s.image,
		Mode:     s.mode,
		Story:    strings.TrimSpace(s.story),
		Audio:    s.audio,
		Language: s.language,
	}, nil
}

func validate(image *ImagePayload, mode Mode, story string, audio media.AudioPayload) error {
	if image == nil || len(image.Data) == 0 {
		return &ValidationError{Field: "image", Message: MsgImageRequired}
	}
	switch mode {
	case ModeText:
		if strings.TrimSpace(story) == "" {
			return &ValidationError{Field: "story", Message: MsgStoryRequired}
		}
	case ModeVoice:
		if audio.Empty() {
			return &ValidationError{Field: "audio", Message: MsgAudioRequired}
		}
	}
	return nil
}
