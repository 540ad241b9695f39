package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventLogPrefix = "ideabox:webhook:"
	// DefaultEventTTL outlives the retry window of both gateways.
	DefaultEventTTL = 72 * time.Hour
)

// EventLog remembers processed webhook event IDs in Redis.
type EventLog struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewEventLog(client redis.UniversalClient, ttl time.Duration) *EventLog {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventLog{client: client, ttl: ttl}
}

func (l *EventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, eventLogPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return n > 0, nil
}

func (l *EventLog) Remember(ctx context.Context, eventID string) error {
	if err := l.client.Set(ctx, eventLogPrefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}
