package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// PuzzleLink is the newest row scraped from a monitored search page.
// The zero value means "nothing seen yet".
type PuzzleLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// IsZero reports whether l is the empty link.
func (l PuzzleLink) IsZero() bool {
	return l == PuzzleLink{}
}

// Resolve returns l with its URL made absolute against base. Stored links
// keep the literal scraped value; only notifications resolve them.
func (l PuzzleLink) Resolve(base string) PuzzleLink {
	baseURL, err := url.Parse(base)
	if err != nil {
		return l
	}
	ref, err := url.Parse(l.URL)
	if err != nil {
		return l
	}
	return PuzzleLink{URL: baseURL.ResolveReference(ref).String(), Title: l.Title}
}

// Message renders the notification body for a new puzzle from source.
func (l PuzzleLink) Message(source string) string {
	return fmt.Sprintf("New puzzle from %s: %s (%s)", source, l.Title, l.URL)
}

// DecodePuzzleLink converts a decoded JSON value into a PuzzleLink. Missing
// or non-string fields become "".
func DecodePuzzleLink(raw any) PuzzleLink {
	fields, ok := raw.(map[string]any)
	if !ok {
		return PuzzleLink{}
	}
	return PuzzleLink{
		URL:   stringField(fields, "url"),
		Title: stringField(fields, "title"),
	}
}

// ParsePuzzleLink decodes one serialized link. Malformed JSON is an error;
// wrong field types are not.
func ParsePuzzleLink(data []byte) (PuzzleLink, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return PuzzleLink{}, fmt.Errorf("decode puzzle link: %w", err)
	}
	return DecodePuzzleLink(raw), nil
}

// ChannelCursor is the persisted position of the video poller.
type ChannelCursor struct {
	Channel string `json:"channel"`
	LastID  string `json:"last_id"`
}

// DecodeChannelCursor is the lenient counterpart of DecodePuzzleLink.
func DecodeChannelCursor(raw any) ChannelCursor {
	fields, ok := raw.(map[string]any)
	if !ok {
		return ChannelCursor{}
	}
	return ChannelCursor{
		Channel: stringField(fields, "channel"),
		LastID:  stringField(fields, "last_id"),
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}
