package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"kalasetu/input"
	"kalasetu/media"
	"kalasetu/pipeline"
	"kalasetu/render"
	"kalasetu/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	imagePath string
	story     string
	audioPath string
	language  string
	outDir    string
	htmlPath  string
	mdPath    string
	jsonOut   bool
}

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate content without the interactive UI",
		Long: `Send a product photo and its story to the generation service and print
the result. Give the story as text with --story, or as an audio file with
--audio to have it transcribed first.`,
		Example: `  kalasetu generate --image mug.jpg --story "Thrown by hand in Khurja"
  kalasetu generate --image stole.png --audio story.webm --language hi-IN --out ./photos
  kalasetu generate --image mug.jpg --story "..." --json > result.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Product photo (jpg, png, gif, webp)")
	cmd.Flags().StringVarP(&opts.story, "story", "s", "", "Product story as text")
	cmd.Flags().StringVarP(&opts.audioPath, "audio", "a", "", "Product story as an audio file to transcribe")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Transcription language code (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Download generated images into this directory")
	cmd.Flags().StringVar(&opts.htmlPath, "html", "", "Write an HTML page of the result to this file")
	cmd.Flags().StringVar(&opts.mdPath, "markdown", "", "Write the result as Markdown to this file")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("story", "audio")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

// submission builds the run input from flags. The mode follows whichever
// story source was given
func (o *generateOptions) submission(maxDim int, defaultLanguage string) (input.Submission, error) {
	sub := input.Submission{Mode: input.ModeText, Story: o.story, Language: defaultLanguage}
	if o.language != "" {
		sub.Language = o.language
	}

	if o.imagePath != "" {
		img, err := input.LoadImage(o.imagePath, maxDim)
		if err != nil {
			return input.Submission{}, err
		}
		sub.Image = img
	}

	if o.audioPath != "" {
		audio, err := media.LoadAudioFile(o.audioPath)
		if err != nil {
			return input.Submission{}, err
		}
		sub.Mode = input.ModeVoice
		sub.Audio = audio
	}

	return sub, nil
}

func (a *app) runGenerate(ctx context.Context, w io.Writer, opts *generateOptions) error {
	sub, err := opts.submission(a.cfg.MaxImageDimension, a.cfg.Language)
	if err != nil {
		return err
	}

	var runID, transcript string
	client := a.client()
	orch := pipeline.NewOrchestrator(client, client,
		pipeline.WithTimeouts(a.cfg.TranscribeTimeout, a.cfg.GenerateTimeout),
		pipeline.WithReporter(pipeline.ReporterFunc(func(e pipeline.Event) {
			runID = e.RunID
			if e.Transcript != "" {
				transcript = e.Transcript
			}
			if e.Phase.Loading() {
				log.Info().Str("run_id", e.RunID).Msg(e.Status)
			}
		})),
	)

	result, err := orch.Run(ctx, sub)
	if err != nil {
		log.Debug().Err(err).Msg("generate failed")
		return errors.New(pipeline.UserMessage(err))
	}

	sections := render.Render(result)

	var downloads []string
	if opts.outDir != "" {
		actions := &render.Actions{Fetcher: client, Dir: opts.outDir}
		downloads, err = actions.DownloadAll(ctx, sections)
		if err != nil {
			return err
		}
	}

	if opts.htmlPath != "" {
		if err := render.WriteHTML(opts.htmlPath, sections, result.Title); err != nil {
			return err
		}
		log.Info().Str("path", opts.htmlPath).Msg("html export written")
	}

	if opts.mdPath != "" {
		if err := os.WriteFile(opts.mdPath, []byte(render.Markdown(sections)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.mdPath, err)
		}
	}

	if opts.jsonOut {
		out := newResultJSON(result)
		out.RunID = runID
		out.Transcript = transcript
		out.Downloads = downloads
		return writeJSON(w, out)
	}

	if transcript != "" {
		fmt.Fprintln(w, tui.Card("Transcript", transcript, 72))
	}
	printSections(w, sections, 72)
	for _, p := range downloads {
		fmt.Fprintln(w, tui.SuccessStyle.Render("Saved ")+filepath.Clean(p))
	}
	for _, p := range []string{opts.htmlPath, opts.mdPath} {
		if p != "" {
			fmt.Fprintln(w, tui.SuccessStyle.Render("Exported ")+p)
		}
	}
	return nil
}
