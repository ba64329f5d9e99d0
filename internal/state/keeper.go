package state

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

// ErrKeeperStopped is returned by requests made after Run has returned.
var ErrKeeperStopped = errors.New("state keeper stopped")

// State is the in-memory view shared by all pollers.
type State struct {
	Channel domain.ChannelCursor
	// Video is the last announced video. It is not persisted; after a
	// restart only Channel.LastID is known.
	Video   domain.Video
	Puzzles map[string]domain.PuzzleLink
}

func (s State) clone() State {
	out := s
	out.Video.PuzzleLinks = append([]string(nil), s.Video.PuzzleLinks...)
	out.Puzzles = maps.Clone(s.Puzzles)
	if out.Puzzles == nil {
		out.Puzzles = map[string]domain.PuzzleLink{}
	}
	return out
}

type request struct {
	apply func(current State) (State, error)
	reply chan response
}

type response struct {
	state State
	err   error
}

// Keeper serializes every read and write of State through one goroutine.
// A mutation is committed to memory only after its file was written.
type Keeper struct {
	store    *Store
	log      logger.Logger
	state    State
	requests chan request
	stopped  chan struct{}
}

// NewKeeper creates a Keeper seeded with initial.
func NewKeeper(store *Store, initial State, log logger.Logger) *Keeper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Keeper{
		store:    store,
		log:      log,
		state:    initial.clone(),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run serves requests until ctx is cancelled.
func (k *Keeper) Run(ctx context.Context) error {
	defer close(k.stopped)

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-k.requests:
			next, err := req.apply(k.state.clone())
			if err == nil {
				k.state = next
			}
			req.reply <- response{state: k.state.clone(), err: err}
		}
	}
}

func (k *Keeper) do(ctx context.Context, apply func(State) (State, error)) (State, error) {
	req := request{apply: apply, reply: make(chan response, 1)}

	select {
	case k.requests <- req:
	case <-k.stopped:
		return State{}, ErrKeeperStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	// The reply is buffered and always sent, so this cannot leak.
	resp := <-req.reply
	return resp.state, resp.err
}

// Snapshot returns a copy of the current state.
func (k *Keeper) Snapshot(ctx context.Context) (State, error) {
	return k.do(ctx, func(current State) (State, error) {
		return current, nil
	})
}

// SetVideo records video as the latest announced upload of channel and
// persists the channel cursor.
func (k *Keeper) SetVideo(ctx context.Context, channel string, video domain.Video) error {
	_, err := k.do(ctx, func(current State) (State, error) {
		current.Video = video
		current.Channel = domain.ChannelCursor{Channel: channel, LastID: video.ExternalID}
		if err := k.store.SaveChannel(current.Channel); err != nil {
			return current, fmt.Errorf("persist channel cursor: %w", err)
		}
		k.log.Debug("Channel cursor saved",
			logger.String("path", k.store.ChannelPath()),
			logger.String("last_id", video.ExternalID),
		)
		return current, nil
	})
	return err
}

// SetPuzzle records link as the newest puzzle of source key and persists
// the complete puzzles map.
func (k *Keeper) SetPuzzle(ctx context.Context, key string, link domain.PuzzleLink) error {
	_, err := k.do(ctx, func(current State) (State, error) {
		current.Puzzles[key] = link
		if err := k.store.SavePuzzles(current.Puzzles); err != nil {
			return current, fmt.Errorf("persist puzzles: %w", err)
		}
		k.log.Debug("Puzzles saved",
			logger.String("path", k.store.PuzzlesPath()),
			logger.String("source", key),
		)
		return current, nil
	})
	return err
}
