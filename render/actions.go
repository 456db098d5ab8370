package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog/log"
)

// Clipboard receives copied text
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// Fetcher downloads remote image URLs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Actions performs copy and download on rendered items
type Actions struct {
	Clipboard Clipboard
	Fetcher   Fetcher
	Dir       string
}

// Copy puts a text item on the clipboard and returns the acknowledgement text
func (a *Actions) Copy(item Item) (string, error) {
	if item.Action != ActionCopy {
		return "", fmt.Errorf("%s cannot be copied", item.Label)
	}
	if err := a.Clipboard.WriteAll(item.Text); err != nil {
		return "", fmt.Errorf("failed to copy %s: %w", strings.ToLower(item.Label), err)
	}
	log.Debug().Str("item", item.Label).Int("index", item.Index).Msg("copied to clipboard")
	return CopiedText(item.Label), nil
}

// CopiedText is the acknowledgement shown after a copy
func CopiedText(label string) string {
	return label + " copied!"
}

// Download saves an image item into Dir under its deterministic name and
// returns the written path
func (a *Actions) Download(ctx context.Context, item Item) (string, error) {
	if item.Action != ActionDownload {
		return "", fmt.Errorf("%s cannot be downloaded", item.Label)
	}

	data, err := a.imageData(ctx, item.URL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", strings.ToLower(item.Label), err)
	}

	dir := a.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(dir, item.FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("image downloaded")
	return path, nil
}

// DownloadAll saves every image item, stopping at the first failure
func (a *Actions) DownloadAll(ctx context.Context, sections []Section) ([]string, error) {
	var paths []string
	for _, item := range Items(sections) {
		if item.Action != ActionDownload {
			continue
		}
		path, err := a.Download(ctx, item)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (a *Actions) imageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}
	if a.Fetcher == nil {
		return nil, errors.New("no fetcher configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	return a.Fetcher.Fetch(ctx, rawURL)
}

// decodeDataURL handles data:[<mediatype>][;base64],<data>
func decodeDataURL(rawURL string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}

	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("malformed data URL: %w", err)
			}
		}
		return data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("malformed data URL: %w", err)
	}
	return []byte(unescaped), nil
}
