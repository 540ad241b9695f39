package datastore

import (
	"context"
	"time"

	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// Unconfigured stands in when no database is set up. Every call fails
// with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) ListIdeas(context.Context, string) ([]idea.Idea, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) CountIdeas(context.Context, string) (int64, error) {
	return 0, ErrNotConfigured
}

func (Unconfigured) InsertIdea(context.Context, idea.Idea) (*idea.Idea, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) DeleteIdea(context.Context, string, string) error {
	return ErrNotConfigured
}

func (Unconfigured) GetSubscription(context.Context, string) (*subscription.Subscription, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) UpsertSubscription(context.Context, subscription.Subscription) error {
	return ErrNotConfigured
}

func (Unconfigured) UpdateSubscriptionStatus(context.Context, string, subscription.Status, time.Time) (int64, error) {
	return 0, ErrNotConfigured
}
