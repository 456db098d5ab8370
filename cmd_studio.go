package main

import (
	"context"
	"fmt"

	"kalasetu/input"
	"kalasetu/tui"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newStudioCmd(a *app) *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Open the interactive studio",
		Long: `Open the full-screen studio. Select a photo, record or type your story,
generate content, then copy or download each piece.

Logs are written to the kalasetu log file while the studio is open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStudio(cmd.Context(), imagePath)
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Product photo to start with")

	return cmd
}

func (a *app) runStudio(ctx context.Context, imagePath string) error {
	var image *input.ImagePayload
	if imagePath != "" {
		img, err := input.LoadImage(imagePath, a.cfg.MaxImageDimension)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}
		image = img
	}

	closer := a.logToFile()
	defer closer.Close()

	log.Info().Str("api", a.cfg.APIBaseURL).Msg("studio opened")
	return tui.RunStudio(ctx, a.cfg, a.services(), image)
}
