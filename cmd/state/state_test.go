package state_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	cmdstate "github.com/jonesrussell/north-cloud/puzzlewatch/cmd/state"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/state"
)

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmdstate.RenderTable(&buf, state.State{
		Channel: domain.ChannelCursor{Channel: "UC1", LastID: "abc"},
		Puzzles: map[string]domain.PuzzleLink{
			"sandra and nala": {},
			"rat run":         {URL: "/p?id=1", Title: "Rat Run 1"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "channel UC1")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "Rat Run 1")
	assert.Contains(t, out, "(none)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("rat run")), bytes.Index(buf.Bytes(), []byte("sandra and nala")))
}
