package idea

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/ideabox/pkg/logger"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
)

// SubscriptionReader resolves an owner's current subscription, defaulting
// to the free plan.
type SubscriptionReader interface {
	Current(ctx context.Context, ownerID string) (subscription.Subscription, error)
}

// Recorder receives idea metrics.
type Recorder interface {
	IdeaCreated(plan string)
	IdeaDeleted()
	LimitReached(plan string)
}

type nopRecorder struct{}

func (nopRecorder) IdeaCreated(string)  {}
func (nopRecorder) IdeaDeleted()        {}
func (nopRecorder) LimitReached(string) {}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// Service is the idea repository used by the HTTP layer.
type Service struct {
	store   Store
	subs    SubscriptionReader
	log     *slog.Logger
	metrics Recorder
}

func NewService(store Store, subs SubscriptionReader, opts ...Option) *Service {
	if store == nil || subs == nil {
		panic("idea: store and subscription reader are required")
	}
	s := &Service{
		store:   store,
		subs:    subs,
		log:     logger.Discard(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the owner's ideas, newest first. Never nil.
func (s *Service) List(ctx context.Context, ownerID string) ([]Idea, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	ideas, err := s.store.ListIdeas(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if ideas == nil {
		ideas = []Idea{}
	}
	return ideas, nil
}

// Create stores a new idea unless the owner's plan quota is used up.
// When the store supports it, the quota check and the insert run under a
// per-owner lock so concurrent requests cannot overshoot the quota.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*Idea, error) {
	if ownerID == "" {
		return nil, ErrMissingOwner
	}

	var created *Idea
	err := s.withOwnerLock(ctx, ownerID, func(ctx context.Context) error {
		sub, err := s.subs.Current(ctx, ownerID)
		if err != nil {
			return err
		}

		quota := subscription.QuotaFor(sub.Plan)
		if quota != subscription.Unlimited {
			count, err := s.store.CountIdeas(ctx, ownerID)
			if err != nil {
				return err
			}
			if !subscription.Allows(quota, count) {
				s.metrics.LimitReached(sub.Plan)
				s.log.InfoContext(ctx, "idea limit reached",
					logger.OwnerID(ownerID),
					logger.Plan(sub.Plan),
					slog.Int64("count", count),
					slog.Int64("quota", quota),
				)
				return ErrLimitReached
			}
		}

		tags := in.Tags
		if tags == nil {
			tags = []string{}
		}
		created, err = s.store.InsertIdea(ctx, Idea{
			OwnerID:     ownerID,
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
			Tags:        tags,
		})
		if err != nil {
			return err
		}

		s.metrics.IdeaCreated(sub.Plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "idea created",
		logger.OwnerID(ownerID),
		logger.IdeaID(created.ID),
		logger.Event("idea_created"),
	)
	return created, nil
}

// Delete removes the owner's idea. Unknown IDs and ideas of other owners
// are left alone and reported as success.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if id == "" {
		return ErrMissingID
	}
	if ownerID == "" {
		return ErrMissingOwner
	}
	if err := s.store.DeleteIdea(ctx, ownerID, id); err != nil {
		return err
	}
	s.metrics.IdeaDeleted()
	return nil
}

// Usage is the owner's quota position, for clients that mirror the limit.
type Usage struct {
	Plan   string              `json:"plan"`
	Status subscription.Status `json:"status"`
	Used   int64               `json:"used"`
	Limit  int64               `json:"limit"`
}

func (s *Service) Usage(ctx context.Context, ownerID string) (Usage, error) {
	if ownerID == "" {
		return Usage{}, ErrMissingOwner
	}
	sub, err := s.subs.Current(ctx, ownerID)
	if err != nil {
		return Usage{}, err
	}
	count, err := s.store.CountIdeas(ctx, ownerID)
	if err != nil {
		return Usage{}, err
	}
	return Usage{
		Plan:   sub.Plan,
		Status: sub.Status,
		Used:   count,
		Limit:  subscription.QuotaFor(sub.Plan),
	}, nil
}

func (s *Service) withOwnerLock(ctx context.Context, ownerID string, fn func(context.Context) error) error {
	if l, ok := s.store.(OwnerLocker); ok {
		return l.WithOwnerLock(ctx, ownerID, fn)
	}
	return fn(ctx)
}
