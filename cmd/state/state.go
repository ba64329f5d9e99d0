// Package state provides commands to create and inspect the state files.
package state

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/common"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	internalstate "github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

// Command returns the state command with its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Manage the persisted cursors",
	}
	cmd.AddCommand(initCommand(), showCommand())
	return cmd
}

func initCommand() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create missing state files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			if channel == "" {
				channel = deps.Config.YouTube.Channel
			}

			store := bootstrap.NewStore(deps.Config, deps.Logger)
			created, err := store.Seed(channel, deps.Config.SourceKeys())
			if err != nil {
				return fmt.Errorf("seed state: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintln(out, "State files already exist")
				return nil
			}
			for _, path := range created {
				deps.Logger.Info("Created state file", logger.String("path", path))
				fmt.Fprintf(out, "Created %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel id to watch (default from config)")
	return cmd
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored cursors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			store := bootstrap.NewStore(deps.Config, deps.Logger)
			st, err := store.Load(deps.Config.SourceKeys())
			if errors.Is(err, internalstate.ErrStateMissing) {
				return fmt.Errorf("%w (run \"puzzlewatch state init\")", err)
			}
			if err != nil {
				return err
			}

			RenderTable(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

// RenderTable prints the channel cursor and one row per puzzle source.
func RenderTable(out io.Writer, st internalstate.State) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Source", "Last Seen", "Title"})
	t.AppendRow(table.Row{"channel " + st.Channel.Channel, orNone(st.Channel.LastID), ""})
	t.AppendSeparator()

	keys := make([]string, 0, len(st.Puzzles))
	for key := range st.Puzzles {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		link := st.Puzzles[key]
		t.AppendRow(table.Row{key, orNone(link.URL), link.Title})
	}

	t.Render()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
