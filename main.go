package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"kalasetu/api"
	"kalasetu/config"
	"kalasetu/logging"
	"kalasetu/media"
	"kalasetu/render"
	"kalasetu/tui"

	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Build info - set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs once flags and config are resolved
type app struct {
	cfg config.Config

	apiURL   string
	logLevel string
	debug    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "kalasetu",
		Short: "Turn a product photo and its story into marketing content",
		Long: `Kalasetu helps artisans present their work. Pick a product photo, type or
record the story behind it, and get a title, a polished story, social media
captions and lifestyle photos back from the generation service.

Running kalasetu without a command opens the interactive studio.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStudio(cmd.Context(), "")
		},
	}

	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Generation service base URL (overrides KALASETU_API_BASE)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log request and response bodies")

	cmd.AddCommand(
		newStudioCmd(a),
		newWizardCmd(a),
		newGenerateCmd(a),
		newUpdateCmd(),
	)

	return cmd
}

// load resolves configuration and initializes logging on stderr
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	logging.Init(cfg.LogLevel, cmd.ErrOrStderr())

	log.Debug().
		Str("api", cfg.APIBaseURL).
		Str("config", cfg.Path).
		Str("version", version).
		Str("built", date).
		Msg("configuration loaded")
	return nil
}

// client returns a backend client. Request deadlines come from the
// per-call contexts, so the HTTP client itself has none
func (a *app) client() *api.Client {
	return api.NewClient(
		api.WithBaseURL(a.cfg.APIBaseURL),
		api.WithTimeout(0),
		api.WithDebug(a.cfg.Debug),
	)
}

func (a *app) services() tui.Services {
	client := a.client()
	return tui.Services{
		Transcriber: client,
		Generator:   client,
		Fetcher:     client,
		Clipboard:   render.SystemClipboard{},
		Backend:     media.NewFFmpegBackend(a.cfg.FFmpeg, a.cfg.AudioInputFormat, a.cfg.AudioInputDevice),
		Player:      media.NewPlayer(a.cfg.FFplay),
	}
}

// logToFile moves logging off the terminal for full-screen UIs
func (a *app) logToFile() io.Closer {
	f, err := logging.InitFile(a.cfg.LogLevel)
	if err != nil {
		logging.Init(a.cfg.LogLevel, io.Discard)
		return io.NopCloser(nil)
	}
	return f
}
