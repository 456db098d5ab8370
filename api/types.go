package api

import (
	"fmt"
	"net/http"
)

// TranscribeRequest is the body of POST /api/transcribe
type TranscribeRequest struct {
	AudioBase64  string `json:"audioBase64"`
	LanguageCode string `json:"languageCode"`
}

// TranscribeResponse is the body returned by /api/transcribe
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	ImageBase64 string `json:"imageBase64"`
	Story       string `json:"story"`
}

// GenerateResponse is the body returned by /api/generate
type GenerateResponse struct {
	TextData  TextData `json:"textData"`
	ImageURLs []string `json:"imageUrls"`

	// Error is set by the backend when generation failed despite a 200
	Error string `json:"error,omitempty"`
}

// TextData holds the generated marketing copy
type TextData struct {
	ProductTitle        string   `json:"productTitle"`
	ProductStory        string   `json:"productStory"`
	SocialMediaCaptions []string `json:"socialMediaCaptions"`
}

// errorBody is the shape of a non-2xx response from the backend
type errorBody struct {
	Detail any    `json:"detail"`
	Error  string `json:"error"`
}

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// DomainError is returned when a 200 response carries an error field
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
