// Package puzzles provides commands for the puzzle-portal sources.
package puzzles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/puzzlewatch/cmd/common"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/poller"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/scrape"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

const checkTimeout = 60 * time.Second

// Command returns the puzzles command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "puzzles",
		Short: "Inspect the puzzle-portal sources",
	}
	cmd.AddCommand(checkCommand())
	return cmd
}

// result is the outcome of checking one source without changing state.
type result struct {
	Key    string
	Newest domain.PuzzleLink
	Stored domain.PuzzleLink
	Err    error
}

func (r result) status() string {
	switch {
	case r.Err != nil:
		return "error: " + r.Err.Error()
	case r.Newest.IsZero():
		return "empty"
	case r.Newest == r.Stored:
		return "unchanged"
	default:
		return "new"
	}
}

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fetch every source once and compare with the stored state (read-only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to get dependencies: %w", err)
			}

			sources, err := bootstrap.Sources(deps.Config)
			if err != nil {
				return err
			}

			stored := map[string]domain.PuzzleLink{}
			if puzzles, loadErr := bootstrap.NewStore(deps.Config, deps.Logger).LoadPuzzles(); loadErr == nil {
				stored = puzzles
			} else if !errors.Is(loadErr, state.ErrStateMissing) {
				return loadErr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			fetcher := bootstrap.NewPortalFetcher(deps.Config, bootstrap.NewHTTPClient(deps.Config))
			results := make([]result, 0, len(sources))
			for _, src := range sources {
				results = append(results, check(ctx, fetcher, src, stored[src.Key]))
			}

			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func check(ctx context.Context, fetcher poller.PageFetcher, src poller.Source, stored domain.PuzzleLink) result {
	res := result{Key: src.Key, Stored: stored}

	page, err := fetcher.Fetch(ctx, src.URL)
	if err != nil {
		res.Err = err
		return res
	}

	newest, err := scrape.FirstRow(string(page))
	if err != nil && !errors.Is(err, scrape.ErrNoRows) {
		res.Err = err
		return res
	}
	res.Newest = newest
	return res
}

func renderResults(out io.Writer, results []result) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Source", "Newest", "URL", "Status"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Key, r.Newest.Title, r.Newest.URL, r.status()})
	}
	t.Render()
}
