// Package poller runs the video and puzzle-portal polling loops.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/fetch"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

// Iteration is one poll. Its error is logged and the loop continues.
type Iteration func(ctx context.Context) error

// Run calls iterate once immediately and then at every activation of
// schedule. Iterations never overlap. It blocks until ctx is cancelled and
// returns nil on clean shutdown.
func Run(ctx context.Context, name string, schedule cron.Schedule, iterate Iteration, log logger.Logger) error {
	log = log.With(logger.String("poller", name))
	ctx = logger.WithContext(ctx, log)
	log.Info("Polling loop started")

	for {
		if err := iterate(ctx); err != nil && ctx.Err() == nil {
			logIterationError(log, err)
		}

		timer := time.NewTimer(nextWait(schedule, time.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Polling loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// minWait bounds how fast a loop can cycle when its schedule has no
// future activation.
const minWait = time.Minute

func nextWait(schedule cron.Schedule, now time.Time) time.Duration {
	next := schedule.Next(now)
	if next.IsZero() {
		return minWait
	}
	if wait := next.Sub(now); wait > 0 {
		return wait
	}
	return minWait
}

func logIterationError(log logger.Logger, err error) {
	fields := []logger.Field{
		logger.String("error_type", classify(err)),
		logger.Time("at", time.Now()),
		logger.Error(err),
	}

	var pollErr *fetch.PollError
	if errors.As(err, &pollErr) {
		fields = append(fields, logger.String("url", pollErr.URL))
		if pollErr.StatusCode > 0 {
			fields = append(fields, logger.Int("status", pollErr.StatusCode))
		}
		if pollErr.Payload != "" {
			fields = append(fields, logger.String("payload", pollErr.Payload))
		}
		if pollErr.Level == fetch.LevelWarn {
			log.Warn("Poll failed", fields...)
			return
		}
	}

	log.Error("Poll failed", fields...)
}
