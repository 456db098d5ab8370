package main

import (
	"errors"
	"fmt"

	"kalasetu/tui"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const defaultReleaseRepo = "kalasetu/kalasetu"

func newUpdateCmd() *cobra.Command {
	var (
		repo  string
		check bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update kalasetu to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repo))
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s", repo)
			}

			if version == "dev" {
				fmt.Fprintf(out, "Latest release is %s. Development builds are not updated in place.\n", latest.Version())
				return nil
			}
			if latest.LessOrEqual(version) {
				fmt.Fprintln(out, tui.SuccessStyle.Render("kalasetu "+version+" is up to date"))
				return nil
			}
			if check {
				fmt.Fprintf(out, "Update available: %s -> %s\n", version, latest.Version())
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return errors.New("could not locate the executable path")
			}

			log.Info().Str("from", version).Str("to", latest.Version()).Str("asset", latest.AssetName).Msg("updating")
			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("failed to update binary: %w", err)
			}

			fmt.Fprintln(out, tui.SuccessStyle.Render("Updated to "+latest.Version()))
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", defaultReleaseRepo, "GitHub repository to take releases from")
	cmd.Flags().BoolVar(&check, "check", false, "Only report whether an update is available")

	return cmd
}
