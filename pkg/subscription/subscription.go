package subscription

import (
	"context"
	"time"
)

// Status of a subscription record. Gateways report many states; only
// "active" is kept as such, everything else is stored as canceled.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// StatusFromGateway collapses a gateway status into Status.
func StatusFromGateway(s string) Status {
	if s == string(StatusActive) {
		return StatusActive
	}
	return StatusCanceled
}

// Subscription is the billing record of one owner.
type Subscription struct {
	OwnerID         string
	Plan            string
	Status          Status
	CustomerRef     string
	SubscriptionRef string
	UpdatedAt       time.Time
}

// Store persists subscriptions. OwnerID is unique.
type Store interface {
	// GetSubscription returns ErrSubscriptionNotFound when the owner has no record.
	GetSubscription(ctx context.Context, ownerID string) (*Subscription, error)
	// UpsertSubscription inserts or replaces the record keyed by OwnerID.
	UpsertSubscription(ctx context.Context, sub Subscription) error
	// UpdateSubscriptionStatus sets status on every record whose
	// SubscriptionRef matches and returns how many were changed.
	UpdateSubscriptionStatus(ctx context.Context, subscriptionRef string, status Status, at time.Time) (int64, error)
}

// EventLog remembers webhook event IDs that were already applied.
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}
