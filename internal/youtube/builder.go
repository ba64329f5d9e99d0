package youtube

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/duration"
	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/links"
)

// API is the subset of Client used by Builder.
type API interface {
	UploadsPlaylist(ctx context.Context, channelID string) (string, error)
	LatestVideoID(ctx context.Context, playlistID string) (string, error)
	Video(ctx context.Context, videoID string) (VideoDetails, error)
}

// Builder assembles domain.Video records.
type Builder struct {
	api API
}

// NewBuilder creates a Builder backed by api.
func NewBuilder(api API) *Builder {
	return &Builder{api: api}
}

// Build fetches one video and assembles its record. Unparseable durations
// yield a zero Duration rather than an error.
func (b *Builder) Build(ctx context.Context, videoID string) (domain.Video, error) {
	details, err := b.api.Video(ctx, videoID)
	if err != nil {
		return domain.Video{}, fmt.Errorf("build video %s: %w", videoID, err)
	}

	return domain.Video{
		Title:       details.Title,
		PuzzleLinks: links.Extract(details.Description),
		Duration:    duration.Parse(details.Duration),
		ExternalID:  videoID,
	}, nil
}

// BuildLatest resolves the channel's newest upload and builds it.
func (b *Builder) BuildLatest(ctx context.Context, channelID string) (domain.Video, error) {
	playlistID, err := b.api.UploadsPlaylist(ctx, channelID)
	if err != nil {
		return domain.Video{}, fmt.Errorf("latest video of %s: %w", channelID, err)
	}

	videoID, err := b.api.LatestVideoID(ctx, playlistID)
	if err != nil {
		return domain.Video{}, fmt.Errorf("latest video of %s: %w", channelID, err)
	}

	return b.Build(ctx, videoID)
}
