package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/config"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/httpclient"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/notify"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/poller"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/portal"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/youtube"
)

// NewStore creates the state store for the configured files.
func NewStore(cfg *config.Config, log logger.Logger) *state.Store {
	return state.NewStore(cfg.State.ChannelFile, cfg.State.PuzzlesFile, log)
}

// NewHTTPClient creates the outbound client shared by both sources.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(httpclient.Config{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
	})
}

// NewVideoBuilder creates the Data API client and builder.
func NewVideoBuilder(cfg *config.Config, client *http.Client) (*youtube.Builder, error) {
	api, err := youtube.NewClient(cfg.YouTube.BaseURL, cfg.YouTube.APIKey, client)
	if err != nil {
		return nil, fmt.Errorf("create youtube client: %w", err)
	}
	return youtube.NewBuilder(api), nil
}

// NewPortalFetcher creates the search page fetcher.
func NewPortalFetcher(cfg *config.Config, client *http.Client) *portal.Fetcher {
	return portal.NewFetcher(client, cfg.HTTP.UserAgent)
}

// NewNotifier creates the SMTP notifier and, when configured, adds the
// Redis publisher. The returned func releases the Redis connection.
func NewNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Notifier, func(), error) {
	smtp, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:      cfg.Email.Host,
		Port:      cfg.Email.Port,
		User:      cfg.Email.User,
		Password:  cfg.Email.Password,
		Recipient: cfg.Email.Recipient,
		Subject:   cfg.Email.Subject,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create smtp notifier: %w", err)
	}

	if !cfg.Redis.Enabled() {
		return smtp, func() {}, nil
	}

	client, err := NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Publishing events to Redis",
		logger.String("address", cfg.Redis.Address),
		logger.String("channel", cfg.Redis.Channel),
	)

	closeRedis := func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("Failed to close Redis client", logger.Error(closeErr))
		}
	}
	return notify.Multi{smtp, notify.NewRedisPublisher(client, cfg.Redis.Channel)}, closeRedis, nil
}

// Sources converts the configured puzzle sources.
func Sources(cfg *config.Config) ([]poller.Source, error) {
	sources := make([]poller.Source, 0, len(cfg.Puzzles.Sources))
	for _, src := range cfg.Puzzles.Sources {
		sched, err := config.ParseSchedule(src.Schedule)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Key, err)
		}
		sources = append(sources, poller.Source{Key: src.Key, URL: src.URL, Schedule: sched})
	}
	return sources, nil
}

type loop struct {
	name     string
	schedule cron.Schedule
	iterate  poller.Iteration
}

func newLoops(
	cfg *config.Config,
	log logger.Logger,
	m *metrics.Metrics,
	keeper poller.Keeper,
	builder *youtube.Builder,
	fetcher *portal.Fetcher,
	notifier notify.Notifier,
) ([]loop, error) {
	videoSchedule, err := config.ParseSchedule(cfg.YouTube.Schedule)
	if err != nil {
		return nil, err
	}
	sources, err := Sources(cfg)
	if err != nil {
		return nil, err
	}

	videoPoller := poller.NewVideoPoller(poller.VideoPollerConfig{
		Source:   builder,
		Keeper:   keeper,
		Notifier: notifier,
		Channel:  cfg.YouTube.Channel,
		Subject:  cfg.Email.Subject,
		Logger:   log,
		Metrics:  m,
	})
	puzzlePoller := poller.NewPuzzlePoller(poller.PuzzlePollerConfig{
		Fetcher:  fetcher,
		Keeper:   keeper,
		Notifier: notifier,
		Subject:  cfg.Email.Subject,
		Logger:   log,
		Metrics:  m,
	})

	loops := []loop{{name: poller.VideoPollerName, schedule: videoSchedule, iterate: videoPoller.Iterate}}
	for _, src := range sources {
		loops = append(loops, loop{name: src.Key, schedule: src.Schedule, iterate: puzzlePoller.IterationFor(src)})
	}
	return loops, nil
}
