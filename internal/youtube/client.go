// Package youtube reads channel uploads from the YouTube Data API v3 and
// turns them into domain.Video records.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/fetch"
)

// ErrNotFound is returned when a response carries no items: the channel,
// playlist or video does not exist, or the channel has no uploads.
var ErrNotFound = errors.New("youtube: no items")

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("youtube: api key is required")

// DefaultBaseURL is the public Data API endpoint.
const DefaultBaseURL = "https://youtube.googleapis.com/youtube/v3"

// Client issues authenticated GET requests against the Data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// resource/response shapes; only the fields read are declared.

type channelItem struct {
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

type playlistItem struct {
	ContentDetails struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// firstItem fetches resource with params and decodes items[0] into T.
func firstItem[T any](ctx context.Context, c *Client, resource string, params url.Values) (T, error) {
	var zero T

	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/" + resource + "?" + params.Encode()

	body, err := fetch.Get(ctx, c.httpClient, endpoint)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", resource, err)
	}

	var resp listResponse[T]
	if unmarshalErr := json.Unmarshal(body, &resp); unmarshalErr != nil {
		return zero, fmt.Errorf("decode %s: %w", resource,
			fetch.ClassifyParseError(unmarshalErr, fetch.Redact(endpoint), body))
	}
	if len(resp.Items) == 0 {
		return zero, fmt.Errorf("%s: %w", resource, ErrNotFound)
	}

	return resp.Items[0], nil
}

// UploadsPlaylist returns the id of the channel's uploads playlist.
func (c *Client) UploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	item, err := firstItem[channelItem](ctx, c, "channels", url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	})
	if err != nil {
		return "", err
	}
	if item.ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("channel %s uploads playlist: %w", channelID, ErrNotFound)
	}
	return item.ContentDetails.RelatedPlaylists.Uploads, nil
}

// LatestVideoID returns the id of the newest entry of a playlist.
func (c *Client) LatestVideoID(ctx context.Context, playlistID string) (string, error) {
	item, err := firstItem[playlistItem](ctx, c, "playlistItems", url.Values{
		"part":       {"snippet,contentDetails"},
		"maxResults": {"1"},
		"playlistId": {playlistID},
	})
	if err != nil {
		return "", err
	}
	if item.ContentDetails.VideoID == "" {
		return "", fmt.Errorf("playlist %s video id: %w", playlistID, ErrNotFound)
	}
	return item.ContentDetails.VideoID, nil
}

// VideoDetails is the raw metadata of one video.
type VideoDetails struct {
	Title       string
	Description string
	Duration    string
}

// Video returns the raw metadata of one video.
func (c *Client) Video(ctx context.Context, videoID string) (VideoDetails, error) {
	item, err := firstItem[videoItem](ctx, c, "videos", url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
	})
	if err != nil {
		return VideoDetails{}, err
	}
	return VideoDetails{
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		Duration:    item.ContentDetails.Duration,
	}, nil
}
