package subscription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/ideabox/pkg/logger"
)

// Recorder receives webhook outcomes for metrics.
type Recorder interface {
	WebhookEvent(kind, outcome string)
}

// Webhook outcomes reported to the Recorder.
const (
	OutcomeApplied   = "applied"
	OutcomeSkipped   = "skipped"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Service resolves plans, starts checkouts and reconciles webhooks.
type Service struct {
	gateway Gateway
	store   Store
	catalog Catalog
	events  EventLog
	metrics Recorder
	log     *slog.Logger
	now     func() time.Time

	successURL string
	cancelURL  string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithCatalog(c Catalog) ServiceOption {
	return func(s *Service) {
		if len(c) > 0 {
			s.catalog = c
		}
	}
}

// WithEventLog enables deduplication of redelivered webhook events.
func WithEventLog(l EventLog) ServiceOption {
	return func(s *Service) { s.events = l }
}

func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRedirects sets where the hosted checkout sends the buyer afterwards,
// derived from the public base URL of the app.
func WithRedirects(appURL string) ServiceOption {
	return func(s *Service) {
		base := strings.TrimRight(appURL, "/")
		s.successURL = base + "/dashboard?success=true"
		s.cancelURL = base + "/pricing"
	}
}

type nopRecorder struct{}

func (nopRecorder) WebhookEvent(string, string) {}

// NewService panics when gateway or store is nil.
func NewService(gateway Gateway, store Store, opts ...ServiceOption) *Service {
	if gateway == nil {
		panic("subscription: gateway is required")
	}
	if store == nil {
		panic("subscription: store is required")
	}

	s := &Service{
		gateway: gateway,
		store:   store,
		catalog: NewCatalog(PriceIDs{}),
		metrics: nopRecorder{},
		log:     logger.Discard(),
		now:     time.Now,
	}
	WithRedirects("http://localhost:8080")(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the plans offered.
func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Current returns the owner's subscription. Owners without a record are on
// the free plan.
func (s *Service) Current(ctx context.Context, ownerID string) (Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, ownerID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		return Subscription{OwnerID: ownerID, Plan: PlanFree, Status: StatusActive}, nil
	case err != nil:
		return Subscription{}, err
	}
	return *sub, nil
}

// CheckoutInput is what the client asks to buy.
type CheckoutInput struct {
	PriceID string
	Plan    string
	Email   string
}

// CreateCheckout starts a hosted checkout for a paid plan. When both the
// request and the catalog carry a price ID they must agree.
func (s *Service) CreateCheckout(ctx context.Context, ownerID string, in CheckoutInput) (*CheckoutLink, error) {
	if ownerID == "" {
		return nil, ErrMissingOwnerID
	}
	plan, ok := s.catalog.Lookup(in.Plan)
	if !ok || !plan.Paid() {
		return nil, ErrInvalidPlan
	}

	priceID := plan.PriceID
	switch {
	case priceID == "":
		priceID = in.PriceID
	case in.PriceID != "" && in.PriceID != priceID:
		return nil, ErrPriceMismatch
	}
	if priceID == "" {
		return nil, ErrMissingPriceID
	}

	link, err := s.gateway.CreateCheckoutLink(ctx, CheckoutRequest{
		OwnerID:    ownerID,
		Email:      in.Email,
		Plan:       plan.ID,
		PriceID:    priceID,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout created",
		logger.OwnerID(ownerID),
		logger.Plan(plan.ID),
		logger.Event("checkout_created"),
	)
	return link, nil
}

// HandleWebhook verifies and applies one gateway event. A nil return means
// the event may be acknowledged; ErrInvalidSignature means nothing was read
// or written; any other error means the gateway should retry.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(ctx, payload, signature)
	if err != nil {
		s.metrics.WebhookEvent("unknown", OutcomeRejected)
		s.log.WarnContext(ctx, "webhook rejected", logger.Error(err), logger.Component("billing"))
		return err
	}

	log := s.log.With(logger.EventID(event.EventID()), logger.EventType(event.EventType()))

	if s.events != nil && event.EventID() != "" {
		seen, err := s.events.Seen(ctx, event.EventID())
		if err != nil {
			log.WarnContext(ctx, "webhook event log lookup failed", logger.Error(err))
		}
		if seen {
			s.metrics.WebhookEvent(event.EventType(), OutcomeDuplicate)
			log.InfoContext(ctx, "webhook event already applied")
			return nil
		}
	}

	outcome, err := s.apply(ctx, log, event)
	s.metrics.WebhookEvent(event.EventType(), outcome)
	if err != nil {
		log.ErrorContext(ctx, "webhook event not applied", logger.Error(err))
		return errors.Join(ErrFailedToReconcileHook, err)
	}

	if s.events != nil && event.EventID() != "" {
		if err := s.events.Remember(ctx, event.EventID()); err != nil {
			log.WarnContext(ctx, "webhook event log write failed", logger.Error(err))
		}
	}
	return nil
}

func (s *Service) apply(ctx context.Context, log *slog.Logger, event Event) (string, error) {
	switch e := event.(type) {
	case CheckoutCompleted:
		if e.OwnerID == "" || e.Plan == "" {
			log.InfoContext(ctx, "checkout without owner or plan metadata")
			return OutcomeSkipped, nil
		}
		err := s.store.UpsertSubscription(ctx, Subscription{
			OwnerID:         e.OwnerID,
			Plan:            e.Plan,
			Status:          StatusActive,
			CustomerRef:     e.CustomerRef,
			SubscriptionRef: e.SubscriptionRef,
			UpdatedAt:       s.now().UTC(),
		})
		if err != nil {
			return OutcomeFailed, err
		}
		log.InfoContext(ctx, "subscription activated", logger.OwnerID(e.OwnerID), logger.Plan(e.Plan))
		return OutcomeApplied, nil

	case SubscriptionChanged:
		if e.SubscriptionRef == "" {
			log.InfoContext(ctx, "subscription event without subscription id")
			return OutcomeSkipped, nil
		}
		status := StatusFromGateway(e.Status)
		if e.Deleted {
			status = StatusCanceled
		}
		n, err := s.store.UpdateSubscriptionStatus(ctx, e.SubscriptionRef, status, s.now().UTC())
		if err != nil {
			return OutcomeFailed, err
		}
		if n == 0 {
			log.InfoContext(ctx, "no subscription matches event", slog.String("subscription_ref", e.SubscriptionRef))
			return OutcomeSkipped, nil
		}
		log.InfoContext(ctx, "subscription status updated",
			slog.String("subscription_ref", e.SubscriptionRef),
			slog.String("status", string(status)),
			slog.Bool("deleted", e.Deleted),
		)
		return OutcomeApplied, nil

	case Unhandled:
		if e.Err != nil {
			log.WarnContext(ctx, "undecodable webhook event acknowledged", logger.Error(e.Err))
			return OutcomeSkipped, nil
		}
	}

	return OutcomeIgnored, nil
}
