// Package bootstrap wires puzzlewatch together and runs it.
//
// The bootstrap process follows these phases:
//   - Phase 1: State - Load the cursor files (they must exist)
//   - Phase 2: Clients - Create the HTTP client, video builder and portal fetcher
//   - Phase 3: Notifier - SMTP plus the optional Redis publisher
//   - Phase 4: Pollers - One loop for the channel and one per puzzle source
//   - Phase 5: Run - Keeper, pollers and the optional status server until a signal
package bootstrap

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/config"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/poller"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/server"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

// Deps are the inputs shared by every command.
type Deps struct {
	Config  *config.Config
	Logger  logger.Logger
	Version string
}

// Start runs the watcher until SIGINT or SIGTERM.
func Start(deps Deps) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, deps)
}

// Run runs the watcher until ctx is cancelled. Configuration errors, a
// missing state file and an unavailable status port are returned before any
// goroutine starts.
func Run(ctx context.Context, deps Deps) error {
	cfg, log := deps.Config, deps.Logger

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Phase 1: State
	store := NewStore(cfg, log)
	initial, err := store.Load(cfg.SourceKeys())
	if err != nil {
		return fmt.Errorf("load state (run \"state init\" first): %w", err)
	}
	keeper := state.NewKeeper(store, initial, log.With(logger.String("component", "state")))

	// Phase 2: Clients
	httpClient := NewHTTPClient(cfg)
	builder, err := NewVideoBuilder(cfg, httpClient)
	if err != nil {
		return err
	}
	fetcher := NewPortalFetcher(cfg, httpClient)

	// Phase 3: Notifier
	notifier, closeNotifier, err := NewNotifier(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	// Phase 4: Pollers
	m := metrics.New()
	loops, err := newLoops(cfg, log, m, keeper, builder, fetcher, notifier)
	if err != nil {
		return err
	}

	var statusListener net.Listener
	if cfg.Server.Enabled {
		if statusListener, err = server.Listen(cfg.Server.Address); err != nil {
			return err
		}
	}

	// Phase 5: Run
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return keeper.Run(groupCtx) })

	for _, l := range loops {
		group.Go(func() error {
			return poller.Run(groupCtx, l.name, l.schedule, l.iterate, log)
		})
	}

	if statusListener != nil {
		router := server.NewRouter(server.Config{
			Address: cfg.Server.Address,
			Version: deps.Version,
			State:   keeper,
			Metrics: m.Handler(),
			Logger:  log,
		})
		group.Go(func() error {
			return server.Serve(groupCtx, statusListener, router, log)
		})
	}

	log.Info("Watching for new content",
		logger.String("channel", initial.Channel.Channel),
		logger.Strings("sources", cfg.SourceKeys()),
		logger.Bool("status_server", cfg.Server.Enabled),
	)

	if err = group.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}
