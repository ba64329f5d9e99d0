package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/metrics"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/notify"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/youtube"
)

// Outcome summarizes one iteration.
type Outcome string

const (
	// OutcomeUnchanged means the newest item was already recorded.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeEmpty means the source currently lists nothing.
	OutcomeEmpty Outcome = "empty"
	// OutcomeSkipped means a new item was found but filtered out.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUpdated means a new item was recorded and announced.
	OutcomeUpdated Outcome = "updated"
	// OutcomeError means the iteration failed before recording anything.
	OutcomeError Outcome = "error"
)

// VideoPollerName labels the video poller in logs and metrics.
const VideoPollerName = "video"

// Keeper is the state owner used by the pollers.
type Keeper interface {
	Snapshot(ctx context.Context) (state.State, error)
	SetVideo(ctx context.Context, channel string, video domain.Video) error
	SetPuzzle(ctx context.Context, key string, link domain.PuzzleLink) error
}

// VideoSource builds the newest upload of a channel.
type VideoSource interface {
	BuildLatest(ctx context.Context, channelID string) (domain.Video, error)
}

// VideoPoller announces new uploads of one channel.
type VideoPoller struct {
	source   VideoSource
	keeper   Keeper
	notifier notify.Notifier
	channel  string
	subject  string
	log      logger.Logger
	metrics  *metrics.Metrics
}

// VideoPollerConfig holds the VideoPoller dependencies. Channel is used
// only when the stored cursor names none.
type VideoPollerConfig struct {
	Source   VideoSource
	Keeper   Keeper
	Notifier notify.Notifier
	Channel  string
	Subject  string
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

// NewVideoPoller creates a VideoPoller.
func NewVideoPoller(cfg VideoPollerConfig) *VideoPoller {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &VideoPoller{
		source:   cfg.Source,
		keeper:   cfg.Keeper,
		notifier: cfg.Notifier,
		channel:  cfg.Channel,
		subject:  cfg.Subject,
		log:      log.With(logger.String("poller", VideoPollerName)),
		metrics:  cfg.Metrics,
	}
}

// Poll checks the channel once. The cursor is saved before the
// notification is sent, so a failed send is never repeated.
func (p *VideoPoller) Poll(ctx context.Context) (Outcome, error) {
	snap, err := p.keeper.Snapshot(ctx)
	if err != nil {
		return OutcomeError, fmt.Errorf("video snapshot: %w", err)
	}

	channel := snap.Channel.Channel
	if channel == "" {
		channel = p.channel
	}

	video, err := p.source.BuildLatest(ctx, channel)
	if errors.Is(err, youtube.ErrNotFound) {
		p.log.Debug("No current video", logger.String("channel", channel))
		return OutcomeEmpty, nil
	}
	if err != nil {
		return OutcomeError, err
	}

	if video.ExternalID == snap.Channel.LastID {
		return OutcomeUnchanged, nil
	}

	if !domain.IsValid(video) {
		p.log.Debug("Skipping non-puzzle video",
			logger.String("video_id", video.ExternalID),
			logger.String("title", video.Title),
			logger.Duration("duration", video.Duration),
		)
		return OutcomeSkipped, nil
	}

	if setErr := p.keeper.SetVideo(ctx, channel, video); setErr != nil {
		return OutcomeError, fmt.Errorf("%w: %w", ErrPersist, setErr)
	}
	p.metrics.ObserveChange(VideoPollerName)

	p.log.Info("New video",
		logger.String("video_id", video.ExternalID),
		logger.String("title", video.Title),
		logger.Strings("puzzle_links", video.PuzzleLinks),
	)

	notifyErr := p.notifier.Notify(ctx, notify.Message{
		Kind:    notify.KindVideo,
		Source:  channel,
		Subject: p.subject,
		Body:    video.Message(),
		Link:    video.WatchURL(),
	})
	p.metrics.ObserveNotification(VideoPollerName, notifyErr)
	if notifyErr != nil {
		return OutcomeUpdated, fmt.Errorf("%w: video %s: %w", ErrNotify, video.ExternalID, notifyErr)
	}

	return OutcomeUpdated, nil
}

// Iterate runs Poll and records its metrics; it is the Iteration passed
// to Run.
func (p *VideoPoller) Iterate(ctx context.Context) error {
	start := time.Now()
	outcome, err := p.Poll(ctx)
	observe(p.metrics, VideoPollerName, outcome, err, time.Since(start))
	return err
}

func observe(m *metrics.Metrics, name string, outcome Outcome, err error, elapsed time.Duration) {
	if err != nil {
		m.ObserveError(name, classify(err))
	}
	m.ObservePoll(name, string(outcome), elapsed)
}
