package state_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

var sourceKeys = []string{"sandra and nala", "rat run"}

func newStore(t *testing.T) *state.Store {
	t.Helper()

	dir := t.TempDir()
	return state.NewStore(filepath.Join(dir, "videos.json"), filepath.Join(dir, "puzzles.json"), logger.NewNop())
}

func TestStore_MissingFile(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	_, err := store.LoadChannel()
	require.ErrorIs(t, err, state.ErrStateMissing)

	_, err = store.Load(sourceKeys)
	require.ErrorIs(t, err, state.ErrStateMissing)
}

func TestStore_SeedThenLoad(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	created, err := store.Seed("UCC-UOdK8-mIjxBQm_ot1T-Q", sourceKeys)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	st, err := store.Load(sourceKeys)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelCursor{Channel: "UCC-UOdK8-mIjxBQm_ot1T-Q"}, st.Channel)
	assert.Equal(t, map[string]domain.PuzzleLink{"sandra and nala": {}, "rat run": {}}, st.Puzzles)

	// A second seed never overwrites.
	require.NoError(t, store.SaveChannel(domain.ChannelCursor{Channel: "UC1", LastID: "abc"}))
	created, err = store.Seed("UC2", sourceKeys)
	require.NoError(t, err)
	assert.Empty(t, created)

	cursor, err := store.LoadChannel()
	require.NoError(t, err)
	assert.Equal(t, "abc", cursor.LastID)
}

func TestStore_FileFormat(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	require.NoError(t, store.SaveChannel(domain.ChannelCursor{Channel: "UC1", LastID: "abc"}))
	require.NoError(t, store.SavePuzzles(map[string]domain.PuzzleLink{
		"sandra and nala": {URL: "/b", Title: "B"},
		"rat run":         {URL: "/a", Title: "A"},
	}))

	channel, err := os.ReadFile(store.ChannelPath())
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel": "UC1", "last_id": "abc"}`, string(channel))

	puzzles, err := os.ReadFile(store.PuzzlesPath())
	require.NoError(t, err)
	assert.Equal(t, `{
  "rat run": {
    "url": "/a",
    "title": "A"
  },
  "sandra and nala": {
    "url": "/b",
    "title": "B"
  }
}
`, string(puzzles))
}

func TestStore_LenientDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    map[string]domain.PuzzleLink
	}{
		{name: "malformed json", content: `{"rat run": `, want: map[string]domain.PuzzleLink{}},
		{name: "not an object", content: `[1, 2]`, want: map[string]domain.PuzzleLink{}},
		{name: "wrong field types", content: `{"rat run": {"url": 3, "title": "T"}}`,
			want: map[string]domain.PuzzleLink{"rat run": {Title: "T"}}},
		{name: "entry not an object", content: `{"rat run": "x"}`,
			want: map[string]domain.PuzzleLink{"rat run": {}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t)
			require.NoError(t, os.WriteFile(store.PuzzlesPath(), []byte(tc.content), 0o600))

			got, err := store.LoadPuzzles()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func startKeeper(t *testing.T, store *state.Store) *state.Keeper {
	t.Helper()

	_, err := store.Seed("UC1", sourceKeys)
	require.NoError(t, err)
	initial, err := store.Load(sourceKeys)
	require.NoError(t, err)

	keeper := state.NewKeeper(store, initial, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = keeper.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return keeper
}

func TestKeeper_SetVideoPersistsCursor(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	keeper := startKeeper(t, store)
	ctx := context.Background()

	video := domain.Video{Title: "T", ExternalID: "vid1", PuzzleLinks: []string{"https://tinyurl.com/x"}}
	require.NoError(t, keeper.SetVideo(ctx, "UC1", video))

	snap, err := keeper.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Video.Equal(video))
	assert.Equal(t, "vid1", snap.Channel.LastID)

	cursor, err := store.LoadChannel()
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelCursor{Channel: "UC1", LastID: "vid1"}, cursor)

	// Snapshots are copies.
	snap.Video.PuzzleLinks[0] = "mutated"
	snap.Puzzles["rat run"] = domain.PuzzleLink{Title: "mutated"}
	again, err := keeper.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://tinyurl.com/x", again.Video.PuzzleLinks[0])
	assert.True(t, again.Puzzles["rat run"].IsZero())
}

func TestKeeper_SetVideoRestoresMissingChannel(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	require.NoError(t, os.WriteFile(store.ChannelPath(), []byte(`{"last_id": 7}`), 0o644))
	require.NoError(t, store.SavePuzzles(map[string]domain.PuzzleLink{}))
	initial, err := store.Load(sourceKeys)
	require.NoError(t, err)
	require.Empty(t, initial.Channel.Channel)

	keeper := state.NewKeeper(store, initial, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = keeper.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, keeper.SetVideo(ctx, "UC9", domain.Video{ExternalID: "vid2", Duration: 1}))

	cursor, err := store.LoadChannel()
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelCursor{Channel: "UC9", LastID: "vid2"}, cursor)
}

func TestKeeper_ConcurrentPuzzleWritersKeepEveryKey(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	keeper := startKeeper(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		key := sourceKeys[i%len(sourceKeys)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			link := domain.PuzzleLink{URL: fmt.Sprintf("/p?id=%d", i), Title: key}
			assert.NoError(t, keeper.SetPuzzle(ctx, key, link))
		}()
	}
	wg.Wait()

	persisted, err := store.LoadPuzzles()
	require.NoError(t, err)
	snap, err := keeper.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, snap.Puzzles, persisted)
	for _, key := range sourceKeys {
		assert.Equal(t, key, persisted[key].Title)
	}
}

func TestKeeper_FailedWriteIsNotCommitted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := state.NewStore(filepath.Join(dir, "videos.json"), filepath.Join(dir, "missing", "puzzles.json"), nil)
	initial := state.State{Puzzles: map[string]domain.PuzzleLink{"rat run": {}}}
	keeper := state.NewKeeper(store, initial, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = keeper.Run(ctx)
	}()

	err := keeper.SetPuzzle(ctx, "rat run", domain.PuzzleLink{URL: "/x", Title: "X"})
	require.Error(t, err)

	snap, err := keeper.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Puzzles["rat run"].IsZero())

	cancel()
	<-done
	_, err = keeper.Snapshot(context.Background())
	assert.ErrorIs(t, err, state.ErrKeeperStopped)
}
