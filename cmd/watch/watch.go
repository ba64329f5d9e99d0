// Package watch provides the long-running watch command.
package watch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/common"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/bootstrap"
)

// Command returns the watch command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll every source and email new content",
		Long: `Poll the configured YouTube channel and puzzle-portal searches on
their schedules. Runs until interrupted.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}
			defer func() { _ = deps.Logger.Sync() }()

			return bootstrap.Start(deps)
		},
	}
}
