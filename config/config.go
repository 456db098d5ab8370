// Package config resolves kalasetu runtime settings from a YAML file,
// environment variables (including a .env file) and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIBaseURL is where the generation backend listens during local development
	DefaultAPIBaseURL = "http://127.0.0.1:8000"

	// DefaultLanguage is the transcription language sent with voice stories
	DefaultLanguage = "en-US"

	DefaultTranscribeTimeout = 2 * time.Minute
	DefaultGenerateTimeout   = 5 * time.Minute
	DefaultToastDuration     = 3 * time.Second

	// DefaultMaxImageDimension caps the longest side of uploaded product photos
	DefaultMaxImageDimension = 2048
)

// DefaultLanguages is the list offered by the language selector.
var DefaultLanguages = []string{"en-US", "en-IN", "hi-IN", "bn-IN", "ta-IN", "te-IN", "mr-IN", "gu-IN", "kn-IN", "ml-IN"}

// Config stores runtime configuration.
type Config struct {
	APIBaseURL        string        `yaml:"api_base_url"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`
	GenerateTimeout   time.Duration `yaml:"generate_timeout"`

	Language  string   `yaml:"language"`
	Languages []string `yaml:"languages"`

	FFmpeg           string `yaml:"ffmpeg"`
	FFplay           string `yaml:"ffplay"`
	AudioInputFormat string `yaml:"audio_input_format"`
	AudioInputDevice string `yaml:"audio_input_device"`

	MaxImageDimension int `yaml:"max_image_dimension"`

	DownloadDir   string        `yaml:"download_dir"`
	ToastDuration time.Duration `yaml:"toast_duration"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`

	// Path is the config file that was read, empty if none
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:        DefaultAPIBaseURL,
		TranscribeTimeout: DefaultTranscribeTimeout,
		GenerateTimeout:   DefaultGenerateTimeout,
		Language:          DefaultLanguage,
		Languages:         append([]string(nil), DefaultLanguages...),
		FFmpeg:            "ffmpeg",
		FFplay:            "ffplay",
		AudioInputFormat:  defaultInputFormat(),
		AudioInputDevice:  defaultInputDevice(),
		MaxImageDimension: DefaultMaxImageDimension,
		DownloadDir:       ".",
		ToastDuration:     DefaultToastDuration,
		LogLevel:          "info",
	}
}

// Load reads the .env file (if any), the config file (if any) and the
// environment, in increasing order of precedence.
func Load() (Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := Default()

	path := FilePath()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FilePath returns the config file location: $KALASETU_CONFIG, or
// ~/.config/kalasetu/config.yaml when it exists.
func FilePath() string {
	if p := strings.TrimSpace(os.Getenv("KALASETU_CONFIG")); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, "kalasetu", "config.yaml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.Path = path
	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = envOrDefault("KALASETU_API_BASE", c.APIBaseURL)
	c.TranscribeTimeout = envOrDefaultDuration("KALASETU_TRANSCRIBE_TIMEOUT", c.TranscribeTimeout)
	c.GenerateTimeout = envOrDefaultDuration("KALASETU_GENERATE_TIMEOUT", c.GenerateTimeout)

	c.Language = envOrDefault("KALASETU_LANGUAGE", c.Language)
	if langs := strings.TrimSpace(os.Getenv("KALASETU_LANGUAGES")); langs != "" {
		c.Languages = splitList(langs)
	}

	c.FFmpeg = envOrDefault("KALASETU_FFMPEG", c.FFmpeg)
	c.FFplay = envOrDefault("KALASETU_FFPLAY", c.FFplay)
	c.AudioInputFormat = envOrDefault("KALASETU_AUDIO_INPUT_FORMAT", c.AudioInputFormat)
	c.AudioInputDevice = envOrDefault("KALASETU_AUDIO_INPUT_DEVICE", c.AudioInputDevice)

	c.MaxImageDimension = envOrDefaultInt("KALASETU_MAX_IMAGE_DIMENSION", c.MaxImageDimension)

	c.DownloadDir = envOrDefault("KALASETU_DOWNLOAD_DIR", c.DownloadDir)
	c.ToastDuration = envOrDefaultDuration("KALASETU_TOAST_DURATION", c.ToastDuration)

	c.LogLevel = envOrDefault("KALASETU_LOG_LEVEL", c.LogLevel)
	c.Debug = envOrDefaultBool("KALASETU_DEBUG", c.Debug)
}

// Validate rejects values that would fail later in less obvious ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base url %q: %w", c.APIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api base url %q: scheme must be http or https", c.APIBaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api base url %q: missing host", c.APIBaseURL)
	}
	if c.TranscribeTimeout < 0 || c.GenerateTimeout < 0 {
		return errors.New("request timeouts must not be negative")
	}
	if c.MaxImageDimension < 0 {
		return errors.New("max image dimension must not be negative")
	}
	if c.ToastDuration <= 0 {
		c.ToastDuration = DefaultToastDuration
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = DefaultLanguage
	}
	if len(c.Languages) == 0 {
		c.Languages = append([]string(nil), DefaultLanguages...)
	}
	if !contains(c.Languages, c.Language) {
		c.Languages = append([]string{c.Language}, c.Languages...)
	}
	return nil
}

func defaultInputFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "pulse"
	}
}

func defaultInputDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return ":0"
	case "windows":
		return "audio=default"
	default:
		return "default"
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envOrDefaultDuration accepts Go durations ("90s") or plain seconds ("90").
func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
