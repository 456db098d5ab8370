package pipeline

import (
	"context"
	"errors"
	"fmt"

	"kalasetu/api"
	"kalasetu/input"
	"kalasetu/media"
)

// ErrBusy is returned by Submit while another run is in flight
var ErrBusy = errors.New("a generation is already in progress")

// Fallback is shown when an error carries no usable text
const Fallback = "An unknown error occurred."

const (
	msgTranscriptionFailed = "Audio transcription failed."
	msgEmptyTranscript     = "Could not understand the audio. Please record again clearly."
	msgMicrophone          = "Could not access microphone. Please grant permission."
	msgBusy                = "A generation is already in progress."
	msgTimeout             = "The request timed out. Please try again."
	msgMalformed           = "The server sent a response that could not be read."
)

// TranscriptionReason says why the transcription step failed
type TranscriptionReason string

const (
	ReasonRequestFailed   TranscriptionReason = "request_failed"
	ReasonEmptyTranscript TranscriptionReason = "empty_transcript"
)

// TranscriptionError ends a voice run before generation
type TranscriptionError struct {
	Reason TranscriptionReason
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription %s", e.Reason)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// GenerationKind classifies a generation failure
type GenerationKind string

const (
	// KindTransport means no HTTP response was received
	KindTransport GenerationKind = "transport"
	// KindStatus means the backend answered with a non-2xx status
	KindStatus GenerationKind = "status"
	// KindDomain means a 2xx response carried an error field
	KindDomain GenerationKind = "domain"
	// KindDecode means a 2xx response body could not be parsed
	KindDecode GenerationKind = "decode"
)

// GenerationError ends a run during the generation step
type GenerationError struct {
	Kind       GenerationKind
	StatusCode int
	Detail     string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Detail)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(err error) *GenerationError {
	var statusErr *api.StatusError
	var domainErr *api.DomainError

	switch {
	case errors.As(err, &domainErr):
		return &GenerationError{Kind: KindDomain, Detail: domainErr.Message, Err: err}
	case errors.As(err, &statusErr):
		return &GenerationError{Kind: KindStatus, StatusCode: statusErr.StatusCode, Detail: statusErr.Detail, Err: err}
	case errors.Is(err, api.ErrMalformedResponse):
		return &GenerationError{Kind: KindDecode, Err: err}
	default:
		return &GenerationError{Kind: KindTransport, Err: err}
	}
}

// UserMessage converts any error from a run, a recording or validation into
// a single non-empty message for display
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *input.ValidationError
	var transcriptionErr *TranscriptionError
	var generationErr *GenerationError

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, ErrBusy):
		return msgBusy
	case errors.Is(err, media.ErrPermissionDenied):
		return msgMicrophone
	case errors.As(err, &transcriptionErr):
		if transcriptionErr.Reason == ReasonEmptyTranscript {
			return msgEmptyTranscript
		}
		return msgTranscriptionFailed
	case errors.As(err, &generationErr):
		return generationMessage(generationErr)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return Fallback
}

func generationMessage(e *GenerationError) string {
	switch e.Kind {
	case KindStatus:
		if e.Detail != "" {
			return e.Detail
		}
		return fmt.Sprintf("Server responded with status: %d", e.StatusCode)
	case KindDomain:
		if e.Detail != "" {
			return e.Detail
		}
	case KindDecode:
		return msgMalformed
	case KindTransport:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return msgTimeout
		}
		if e.Err != nil && e.Err.Error() != "" {
			return "Could not reach the server: " + e.Err.Error()
		}
	}
	return Fallback
}
