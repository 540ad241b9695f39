package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Stripe event types the service reacts to.
const (
	StripeCheckoutCompleted   = "checkout.session.completed"
	StripeSubscriptionUpdated = "customer.subscription.updated"
	StripeSubscriptionDeleted = "customer.subscription.deleted"
)

// StripeConfig is read from the environment.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

func (c StripeConfig) Configured() bool {
	return c.SecretKey != "" && c.WebhookSecret != ""
}

// StripeOption customises a StripeGateway.
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backendURL string
	httpClient *http.Client
}

// WithStripeBackend points the API client at another base URL. Used to run
// against stripe-mock or a test server.
func WithStripeBackend(url string, hc *http.Client) StripeOption {
	return func(o *stripeOptions) {
		o.backendURL = url
		o.httpClient = hc
	}
}

// StripeGateway implements Gateway on Stripe Checkout and Stripe webhooks.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(cfg StripeConfig, opts ...StripeOption) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}

	var backends *stripe.Backends
	if o.backendURL != "" {
		backendCfg := &stripe.BackendConfig{
			URL:               stripe.String(o.backendURL),
			HTTPClient:        o.httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
		}
	}

	return &StripeGateway{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateCheckoutLink creates a subscription-mode Checkout Session. Owner and
// plan are written to both the session and subscription metadata.
func (g *StripeGateway) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	metadata := map[string]string{
		MetadataOwnerID: req.OwnerID,
		MetadataPlan:    req.Plan,
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		ClientReferenceID: stripe.String(req.OwnerID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrCheckoutFailed, err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{URL: sess.URL, SessionID: sess.ID}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// API version mismatches are tolerated; only the fields read below matter.
func (g *StripeGateway) ParseWebhook(_ context.Context, payload []byte, signature string) (Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	meta := Meta{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return Unhandled{Meta: meta}, nil
	}

	switch meta.Type {
	case StripeCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return Unhandled{Meta: meta, Err: errors.Join(ErrInvalidPayload, err)}, nil
		}
		e := CheckoutCompleted{
			Meta:    meta,
			OwnerID: sess.Metadata[MetadataOwnerID],
			Plan:    sess.Metadata[MetadataPlan],
		}
		if sess.Customer != nil {
			e.CustomerRef = sess.Customer.ID
		}
		if sess.Subscription != nil {
			e.SubscriptionRef = sess.Subscription.ID
		}
		return e, nil

	case StripeSubscriptionUpdated, StripeSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return Unhandled{Meta: meta, Err: errors.Join(ErrInvalidPayload, err)}, nil
		}
		return SubscriptionChanged{
			Meta:            meta,
			SubscriptionRef: sub.ID,
			Status:          string(sub.Status),
			Deleted:         meta.Type == StripeSubscriptionDeleted,
		}, nil
	}

	return Unhandled{Meta: meta}, nil
}
