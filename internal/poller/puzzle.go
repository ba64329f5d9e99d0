package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/notify"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/scrape"
)

// Source is one monitored search page. Key names its slot in the puzzles
// state.
type Source struct {
	Key      string
	URL      string
	Schedule cron.Schedule
}

// PageFetcher downloads a search page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// PuzzlePoller announces new entries on portal search pages. One instance
// serves every source.
type PuzzlePoller struct {
	fetcher  PageFetcher
	keeper   Keeper
	notifier notify.Notifier
	subject  string
	log      logger.Logger
	metrics  *metrics.Metrics
}

// PuzzlePollerConfig holds the PuzzlePoller dependencies.
type PuzzlePollerConfig struct {
	Fetcher  PageFetcher
	Keeper   Keeper
	Notifier notify.Notifier
	Subject  string
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

// NewPuzzlePoller creates a PuzzlePoller.
func NewPuzzlePoller(cfg PuzzlePollerConfig) *PuzzlePoller {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &PuzzlePoller{
		fetcher:  cfg.Fetcher,
		keeper:   cfg.Keeper,
		notifier: cfg.Notifier,
		subject:  cfg.Subject,
		log:      log,
		metrics:  cfg.Metrics,
	}
}

// Poll checks one source once. Links are compared and stored exactly as
// scraped; a changed title alone counts as a new puzzle.
func (p *PuzzlePoller) Poll(ctx context.Context, src Source) (Outcome, error) {
	page, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return OutcomeError, fmt.Errorf("fetch %s: %w", src.Key, err)
	}

	link, err := scrape.FirstRow(string(page))
	if errors.Is(err, scrape.ErrNoRows) {
		p.log.Warn("Search page lists no puzzles",
			logger.String("source", src.Key),
			logger.String("url", src.URL),
		)
		return OutcomeEmpty, nil
	}
	if err != nil {
		return OutcomeError, fmt.Errorf("scrape %s: %w", src.Key, err)
	}

	snap, err := p.keeper.Snapshot(ctx)
	if err != nil {
		return OutcomeError, fmt.Errorf("puzzle snapshot: %w", err)
	}
	if snap.Puzzles[src.Key] == link {
		return OutcomeUnchanged, nil
	}

	if setErr := p.keeper.SetPuzzle(ctx, src.Key, link); setErr != nil {
		return OutcomeError, fmt.Errorf("%w: %w", ErrPersist, setErr)
	}
	p.metrics.ObserveChange(src.Key)

	resolved := link.Resolve(src.URL)
	p.log.Info("New puzzle",
		logger.String("source", src.Key),
		logger.String("title", link.Title),
		logger.String("url", resolved.URL),
	)

	notifyErr := p.notifier.Notify(ctx, notify.Message{
		Kind:    notify.KindPuzzle,
		Source:  src.Key,
		Subject: p.subject,
		Body:    resolved.Message(src.Key),
		Link:    resolved.URL,
	})
	p.metrics.ObserveNotification(src.Key, notifyErr)
	if notifyErr != nil {
		return OutcomeUpdated, fmt.Errorf("%w: puzzle %s: %w", ErrNotify, src.Key, notifyErr)
	}

	return OutcomeUpdated, nil
}

// IterationFor returns the Iteration that polls src.
func (p *PuzzlePoller) IterationFor(src Source) Iteration {
	return func(ctx context.Context) error {
		start := time.Now()
		outcome, err := p.Poll(ctx, src)
		observe(p.metrics, src.Key, outcome, err, time.Since(start))
		return err
	}
}
