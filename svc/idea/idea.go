// Package idea implements the owner-scoped idea collection and enforces the
// plan quota on creation.
package idea

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLimitReached = errors.New("idea limit reached")
	ErrMissingID    = errors.New("idea id is required")
	ErrMissingOwner = errors.New("owner is required")
)

// Categories offered by the dashboard. Any string is accepted.
var Categories = []string{"Product", "Feature", "Marketing", "Design", "Technical", "Business", "Other"}

// Idea is a short text record owned by one user. ID and CreatedAt are
// assigned by the store; ideas are never updated.
type Idea struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input is the caller-supplied part of an idea.
type Input struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// Store persists ideas.
type Store interface {
	// ListIdeas returns the owner's ideas, newest first.
	ListIdeas(ctx context.Context, ownerID string) ([]Idea, error)
	CountIdeas(ctx context.Context, ownerID string) (int64, error)
	// InsertIdea stores the idea and returns it with ID and CreatedAt set.
	InsertIdea(ctx context.Context, idea Idea) (*Idea, error)
	// DeleteIdea removes the idea only if it belongs to ownerID. Deleting
	// nothing is not an error.
	DeleteIdea(ctx context.Context, ownerID, id string) error
}

// OwnerLocker is implemented by stores that can serialise work per owner.
// fn runs with a context that must be passed to store calls made inside it.
type OwnerLocker interface {
	WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context) error) error
}
