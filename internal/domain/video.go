// Package domain holds the records compared between polls.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/duration"
)

// WatchURLPrefix is prepended to a video id to build its public link.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// Video is one fully described upload. Build it once; do not mutate it.
type Video struct {
	Title       string
	PuzzleLinks []string
	Duration    time.Duration
	ExternalID  string
}

// Equal reports structural equality over every field.
func (v Video) Equal(other Video) bool {
	return v.Title == other.Title &&
		v.Duration == other.Duration &&
		v.ExternalID == other.ExternalID &&
		slices.Equal(v.PuzzleLinks, other.PuzzleLinks)
}

// IsZero reports whether v is the empty "no current video" record.
func (v Video) IsZero() bool {
	return v.Equal(Video{})
}

// WatchURL returns the public page of the video.
func (v Video) WatchURL() string {
	return WatchURLPrefix + v.ExternalID
}

// excludedTitleFragments mark cross-posted uploads that are not puzzle solves.
var excludedTitleFragments = []string{
	"crossword",
	"wordle",
	"sudoku experts play",
}

// IsValid reports whether v should be announced. Non-puzzle uploads and
// records whose duration could not be parsed are rejected.
func IsValid(v Video) bool {
	if v.Duration == 0 {
		return false
	}

	title := strings.ToLower(v.Title)
	for _, fragment := range excludedTitleFragments {
		if strings.Contains(title, fragment) {
			return false
		}
	}
	return true
}

// Message renders the notification body for v.
func (v Video) Message() string {
	if len(v.PuzzleLinks) == 0 {
		return fmt.Sprintf("The latest video %s (%s) took %s.",
			v.Title, v.WatchURL(), duration.Format(v.Duration))
	}
	return fmt.Sprintf("The latest video %s (%s) for %s took %s.",
		v.Title, v.WatchURL(), strings.Join(v.PuzzleLinks, ", "), duration.Format(v.Duration))
}
