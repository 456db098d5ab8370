package input

import (
	"errors"
	"testing"

	"kalasetu/media"
)

func testImage() *ImagePayload {
	return &ImagePayload{Data: []byte{0xff, 0xd8}, MIMEType: "image/jpeg", Name: "mug.jpg"}
}

func TestValidateOrder(t *testing.T) {
	audio := media.AudioPayload{Data: []byte("opus")}

	tests := []struct {
		name      string
		image     *ImagePayload
		mode      Mode
		story     string
		audio     media.AudioPayload
		wantField string
	}{
		{"no image text mode", nil, ModeText, "story", audio, "image"},
		{"no image voice mode", nil, ModeVoice, "story", audio, "image"},
		{"no image nothing else", nil, ModeText, "", media.AudioPayload{}, "image"},
		{"empty image data", &ImagePayload{}, ModeVoice, "", audio, "image"},
		{"text mode blank story", testImage(), ModeText, "   \n\t", audio, "story"},
		{"voice mode no audio", testImage(), ModeVoice, "typed story", media.AudioPayload{}, "audio"},
		{"text mode ok", testImage(), ModeText, "Handmade ceramic mug", media.AudioPayload{}, ""},
		{"voice mode ok", testImage(), ModeVoice, "", audio, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("en-US")
			s.SetImage(tt.image)
			s.SetStory(tt.story)
			s.SetAudio(tt.audio)

			err := s.Validate(tt.mode)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.wantField)
			}
			if vErr.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	s := NewState("en-US")

	if err := s.Validate(ModeVoice); err.Error() != "Please upload an image." {
		t.Errorf("missing image message = %q", err)
	}

	s.SetImage(testImage())
	if err := s.Validate(ModeText); err.Error() != "Please type a story for your product." {
		t.Errorf("missing story message = %q", err)
	}
	if err := s.Validate(ModeVoice); err.Error() != "Please record a story for your product." {
		t.Errorf("missing audio message = %q", err)
	}
}

func TestSetModeKeepsContent(t *testing.T) {
	s := NewState("en-US")
	s.SetStory("typed")
	s.SetAudio(media.AudioPayload{Data: []byte("rec")})

	s.SetMode(ModeText)
	s.SetMode(ModeVoice)
	s.SetMode(ModeText)

	if s.Story() != "typed" {
		t.Errorf("Story() = %q after mode switches", s.Story())
	}
	if string(s.Audio().Data) != "rec" {
		t.Errorf("Audio() = %q after mode switches", s.Audio().Data)
	}
	if s.Mode() != ModeText {
		t.Errorf("Mode() = %v, want text", s.Mode())
	}
}

func TestDefaultMode(t *testing.T) {
	if got := NewState("en-US").Mode(); got != ModeVoice {
		t.Errorf("default Mode() = %v, want voice", got)
	}
}

func TestImageLifecycle(t *testing.T) {
	s := NewState("en-US")
	first := testImage()
	second := &ImagePayload{Data: []byte{0x89, 'P'}, Name: "saree.png"}

	s.SetImage(first)
	s.SetImage(second)
	if s.Image() != second {
		t.Error("SetImage() should replace the previous image")
	}

	s.ClearImage()
	if s.Image() != nil {
		t.Error("ClearImage() should remove the image")
	}
}

func TestSetAudioSupersedes(t *testing.T) {
	s := NewState("en-US")
	s.SetAudio(media.AudioPayload{Data: []byte("first")})
	s.SetAudio(media.AudioPayload{Data: []byte("second")})

	if string(s.Audio().Data) != "second" {
		t.Errorf("Audio() = %q, want second", s.Audio().Data)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewState("hi-IN")
	s.SetImage(testImage())
	s.SetMode(ModeText)
	s.SetStory("  Handmade ceramic mug  ")

	sub, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if sub.Story != "Handmade ceramic mug" {
		t.Errorf("Story = %q", sub.Story)
	}
	if sub.Mode != ModeText || sub.Language != "hi-IN" {
		t.Errorf("Snapshot = %+v", sub)
	}

	// Later edits do not leak into the snapshot
	s.SetStory("changed")
	if sub.Story != "Handmade ceramic mug" {
		t.Error("snapshot changed after state edit")
	}

	s.SetMode(ModeVoice)
	if _, err := s.Snapshot(); err == nil {
		t.Error("Snapshot() in voice mode without audio should fail")
	}
}

func TestModeToggle(t *testing.T) {
	if ModeVoice.Toggle() != ModeText || ModeText.Toggle() != ModeVoice {
		t.Error("Toggle() should alternate modes")
	}
	if ModeVoice.String() != "voice" || ModeText.String() != "text" {
		t.Error("unexpected mode names")
	}
}
