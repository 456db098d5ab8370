package input

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageFileSize is the maximum product photo size accepted (20MB)
	MaxImageFileSize = 20 * 1024 * 1024

	jpegQuality = 90
)

// ImagePayload is the product photo as it will be sent for generation
type ImagePayload struct {
	Data     []byte
	MIMEType string
	Name     string

	Width  int
	Height int

	// OriginalSize is the file size before any downscaling
	OriginalSize int64
	Resized      bool

	// Camera and TakenAt come from EXIF when the photo carries it
	Camera  string
	TakenAt time.Time
}

// Base64 returns the image encoded for the generation request
func (p *ImagePayload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Summary returns the one-line preview shown next to the selected image
func (p *ImagePayload) Summary() string {
	s := fmt.Sprintf("%s (%s, %dx%d, %s)", p.Name, p.MIMEType, p.Width, p.Height, FormatSize(int64(len(p.Data))))
	if p.Resized {
		s += fmt.Sprintf(", downscaled from %s", FormatSize(p.OriginalSize))
	}
	return s
}

// Details returns EXIF-derived lines, empty when the photo has none
func (p *ImagePayload) Details() []string {
	var lines []string
	if p.Camera != "" {
		lines = append(lines, "Camera: "+p.Camera)
	}
	if !p.TakenAt.IsZero() {
		lines = append(lines, "Taken: "+p.TakenAt.Format("2 Jan 2006 15:04"))
	}
	return lines
}

// LoadImage reads a product photo from disk. Images whose longest side
// exceeds maxDim are downscaled; maxDim <= 0 disables downscaling
func LoadImage(path string, maxDim int) (*ImagePayload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageFileSize {
		return nil, fmt.Errorf("image size %s exceeds maximum %s", FormatSize(info.Size()), FormatSize(MaxImageFileSize))
	}
	if !IsImageFile(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	payload, err := NewImagePayload(filepath.Base(path), data, maxDim)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// NewImagePayload builds a payload from raw image bytes
func NewImagePayload(name string, data []byte, maxDim int) (*ImagePayload, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	mimeType := formatMIMEType(format)
	if mimeType == "" {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	payload := &ImagePayload{
		Data:         data,
		MIMEType:     mimeType,
		Name:         name,
		Width:        cfg.Width,
		Height:       cfg.Height,
		OriginalSize: int64(len(data)),
	}

	readExif(payload, data)

	if maxDim > 0 && (cfg.Width > maxDim || cfg.Height > maxDim) {
		if err := downscale(payload, maxDim); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func readExif(p *ImagePayload, data []byte) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("image", p.Name).Msg("no EXIF metadata")
		return
	}

	maker := strings.TrimSpace(exifData.Make)
	model := strings.TrimSpace(exifData.Model)
	switch {
	case maker != "" && model != "" && !strings.HasPrefix(model, maker):
		p.Camera = maker + " " + model
	case model != "":
		p.Camera = model
	default:
		p.Camera = maker
	}

	switch {
	case !exifData.DateTimeOriginal().IsZero():
		p.TakenAt = exifData.DateTimeOriginal()
	case !exifData.CreateDate().IsZero():
		p.TakenAt = exifData.CreateDate()
	case !exifData.ModifyDate().IsZero():
		p.TakenAt = exifData.ModifyDate()
	}
}

// downscale shrinks the image so its longest side is maxDim, re-encoding as
// PNG when the source was PNG and JPEG otherwise
func downscale(p *ImagePayload, maxDim int) error {
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := scaledSize(width, height, maxDim)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	if p.MIMEType == "image/png" {
		mimeType = "image/png"
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return fmt.Errorf("failed to encode resized image: %w", err)
	}

	log.Debug().
		Str("image", p.Name).
		Int("from_width", width).
		Int("from_height", height).
		Int("to_width", newWidth).
		Int("to_height", newHeight).
		Msg("downscaled image")

	p.Data = buf.Bytes()
	p.MIMEType = mimeType
	p.Width = newWidth
	p.Height = newHeight
	p.Resized = true
	return nil
}

// scaledSize keeps the aspect ratio while fitting the longest side to maxDim
func scaledSize(width, height, maxDim int) (int, int) {
	if width >= height {
		h := height * maxDim / width
		if h < 1 {
			h = 1
		}
		return maxDim, h
	}
	w := width * maxDim / height
	if w < 1 {
		w = 1
	}
	return w, maxDim
}

func formatMIMEType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

// getMIMEType returns the MIME type for an image file extension
func getMIMEType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

// IsImageFile checks if a path has a supported image extension
func IsImageFile(path string) bool {
	return getMIMEType(filepath.Ext(path)) != ""
}

// ImageExtensions lists the extensions accepted by the file pickers
func ImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

// FormatSize returns a human-readable file size
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
