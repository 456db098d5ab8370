package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// BaseURL is the default backend address
	BaseURL = "http://127.0.0.1:8000"

	// DefaultTimeout for API requests (image generation can take minutes)
	DefaultTimeout = 5 * time.Minute

	// MaxDownloadSize caps a single generated image download (50MB)
	MaxDownloadSize = 50 * 1024 * 1024

	// MaxResponseSize caps a JSON response body. Generated images may come
	// back inline as data URLs, so it is larger than one download
	MaxResponseSize = 4 * MaxDownloadSize

	transcribePath = "/api/transcribe"
	generatePath   = "/api/generate"

	debugBodyLimit = 2000
)

// ErrMalformedResponse wraps JSON decoding failures of a 2xx response
var ErrMalformedResponse = errors.New("failed to parse response")

// Client talks to the kalasetu generation backend
type Client struct {
	baseURL     string
	httpClient  *http.Client
	debug       bool
	maxResponse int64
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets the backend base URL. Invalid URLs are ignored
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return
		}
		if parsed.Host == "" {
			return
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDebug enables request/response logging at debug level
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a new backend client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		maxResponse: MaxResponseSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend address requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transcribe sends recorded audio to /api/transcribe. An empty transcript is
// returned as-is; deciding whether that is a failure is up to the caller
func (c *Client) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	if req.AudioBase64 == "" {
		return nil, fmt.Errorf("audio is required")
	}

	respBody, err := c.post(ctx, transcribePath, req)
	if err != nil {
		return nil, err
	}

	var result TranscribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &result, nil
}

// Generate sends the product image and story to /api/generate
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req.ImageBase64 == "" {
		return nil, fmt.Errorf("image is required")
	}

	respBody, err := c.post(ctx, generatePath, req)
	if err != nil {
		return nil, err
	}

	var result GenerateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if result.Error != "" {
		return nil, &DomainError{Message: result.Error}
	}

	return &result, nil
}

// Fetch downloads a generated image by URL. Relative URLs resolve against the base URL
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target := rawURL
	if strings.HasPrefix(rawURL, "/") {
		target = c.baseURL + rawURL
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.debug {
		log.Debug().Str("method", http.MethodGet).Str("url", target).Msg("api request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, debugBodyLimit))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("download exceeds %d bytes", MaxDownloadSize)
	}

	return data, nil
}

// post marshals in as JSON and returns the body of a 2xx response. Non-2xx
// responses become a *StatusError carrying the parsed detail, if any
func (c *Client) post(ctx context.Context, path string, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	if c.debug {
		log.Debug().Str("method", http.MethodPost).Str("url", endpoint).Int("bytes", len(payload)).Msg("api request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(respBody)) > c.maxResponse {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, c.maxResponse)
	}

	if c.debug {
		log.Debug().
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Str("body", truncate(respBody, debugBodyLimit)).
			Msg("api response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(respBody, debugBodyLimit),
		}
		var body errorBody
		if err := json.Unmarshal(respBody, &body); err == nil {
			statusErr.Detail = detailString(body.Detail)
			if statusErr.Detail == "" {
				statusErr.Detail = body.Error
			}
		}
		return nil, statusErr
	}

	return respBody, nil
}

// detailString flattens a backend detail field. It is usually a string, but
// request validation failures send a list of {"msg": ...} objects
func detailString(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case []any:
		var msgs []string
		for _, item := range d {
			if obj, ok := item.(map[string]any); ok {
				if msg, ok := obj["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
					continue
				}
			}
			if s := detailString(item); s != "" {
				msgs = append(msgs, s)
			}
		}
		return strings.Join(msgs, "; ")
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprint(d)
		}
		return string(b)
	}
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
