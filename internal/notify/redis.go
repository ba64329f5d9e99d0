package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the JSON payload published for each message.
type Event struct {
	ID          string    `json:"id"`
	Type        Kind      `json:"type"`
	Source      string    `json:"source"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// RedisPublisher publishes messages as events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

// NewRedisPublisher creates a publisher on channel.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

// Notify publishes msg.
func (p *RedisPublisher) Notify(ctx context.Context, msg Message) error {
	event := Event{
		ID:          uuid.NewString(),
		Type:        msg.Kind,
		Source:      msg.Source,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Link:        msg.Link,
		PublishedAt: p.now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if publishErr := p.client.Publish(ctx, p.channel, payload).Err(); publishErr != nil {
		return fmt.Errorf("publish to redis: %w", publishErr)
	}
	return nil
}
