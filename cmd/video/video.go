// Package video provides a command to describe a single video.
package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/common"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
)

const lookupTimeout = 30 * time.Second

// Command returns the video command.
func Command() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "video [video-id]",
		Short: "Describe a video the way the watcher would announce it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !latest && len(args) == 0 {
				return errors.New("a video id or --latest is required")
			}

			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			if err = deps.Config.ValidateYouTube(); err != nil {
				return err
			}

			builder, err := bootstrap.NewVideoBuilder(deps.Config, bootstrap.NewHTTPClient(deps.Config))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), lookupTimeout)
			defer cancel()

			var v domain.Video
			if latest {
				v, err = builder.BuildLatest(ctx, deps.Config.YouTube.Channel)
			} else {
				v, err = builder.Build(ctx, args[0])
			}
			if err != nil {
				return err
			}

			printVideo(cmd, v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "describe the newest upload of the configured channel")
	return cmd
}

func printVideo(cmd *cobra.Command, v domain.Video) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, v.Message())
	if !domain.IsValid(v) {
		fmt.Fprintln(out, "(this video would not be announced)")
	}
}
