package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
)

func validVideo() domain.Video {
	return domain.Video{
		Title:       "Sudoku, Gauss & Parity",
		PuzzleLinks: []string{"https://app.crackingthecryptic.com/sudoku/QR7MMGHpfJ"},
		Duration:    44*time.Minute + 53*time.Second,
		ExternalID:  "39oIdXDf3J4",
	}
}

func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*domain.Video)
		want   bool
	}{
		{name: "puzzle video", mutate: func(*domain.Video) {}, want: true},
		{name: "crossword", mutate: func(v *domain.Video) { v.Title = "The Times Crossword Friday" }, want: false},
		{name: "wordle upper case", mutate: func(v *domain.Video) { v.Title = "WORDLE in 3" }, want: false},
		{name: "experts play", mutate: func(v *domain.Video) { v.Title = "Sudoku Experts Play Chess" }, want: false},
		{name: "zero duration", mutate: func(v *domain.Video) { v.Duration = 0 }, want: false},
		{name: "zero duration without links", mutate: func(v *domain.Video) {
			v.Duration = 0
			v.PuzzleLinks = nil
		}, want: false},
		{name: "no links still valid", mutate: func(v *domain.Video) { v.PuzzleLinks = []string{} }, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := validVideo()
			tc.mutate(&v)
			assert.Equal(t, tc.want, domain.IsValid(v))
		})
	}
}

func TestVideo_Equal(t *testing.T) {
	t.Parallel()

	a := validVideo()
	b := validVideo()
	assert.True(t, a.Equal(b))

	b.PuzzleLinks = append([]string{}, b.PuzzleLinks...)
	b.PuzzleLinks[0] = "https://tinyurl.com/other"
	assert.False(t, a.Equal(b))

	assert.True(t, domain.Video{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestVideo_Message(t *testing.T) {
	t.Parallel()

	v := validVideo()
	assert.Equal(t,
		"The latest video Sudoku, Gauss & Parity (https://www.youtube.com/watch?v=39oIdXDf3J4) "+
			"for https://app.crackingthecryptic.com/sudoku/QR7MMGHpfJ took 0:44:53.",
		v.Message())

	v.PuzzleLinks = nil
	assert.Equal(t,
		"The latest video Sudoku, Gauss & Parity (https://www.youtube.com/watch?v=39oIdXDf3J4) took 0:44:53.",
		v.Message())
}

func TestPuzzleLink_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []domain.PuzzleLink{
		{},
		{URL: "/x", Title: "Title"},
		{URL: "https://logic-masters.de/Raetselportal/Raetsel/zeigen.php?id=000ABC", Title: "Rat Run 12: Ümläut"},
	}

	for _, link := range cases {
		data, err := json.Marshal(link)
		require.NoError(t, err)

		got, err := domain.ParsePuzzleLink(data)
		require.NoError(t, err)
		assert.Equal(t, link, got)
	}
}

func TestParsePuzzleLink_Lenient(t *testing.T) {
	t.Parallel()

	got, err := domain.ParsePuzzleLink([]byte(`{"url": 42, "title": "kept"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.PuzzleLink{Title: "kept"}, got)

	got, err = domain.ParsePuzzleLink([]byte(`["not", "an", "object"]`))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = domain.ParsePuzzleLink([]byte(`{`))
	assert.Error(t, err)
}

func TestPuzzleLink_Resolve(t *testing.T) {
	t.Parallel()

	link := domain.PuzzleLink{URL: "/Raetselportal/Raetsel/zeigen.php?id=1", Title: "T"}
	got := link.Resolve("https://logic-masters.de/Raetselportal/Suche/erweitert.php?x=1")

	assert.Equal(t, "https://logic-masters.de/Raetselportal/Raetsel/zeigen.php?id=1", got.URL)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "New puzzle from rat run: T (https://logic-masters.de/Raetselportal/Raetsel/zeigen.php?id=1)",
		got.Message("rat run"))
}

func TestDecodeChannelCursor(t *testing.T) {
	t.Parallel()

	var raw any
	require.NoError(t, json.Unmarshal([]byte(`{"channel": "UC1", "last_id": null}`), &raw))

	assert.Equal(t, domain.ChannelCursor{Channel: "UC1"}, domain.DecodeChannelCursor(raw))
}
