// Package billing serves the plan catalog, checkout creation and the
// payment gateway webhook.
package billing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/pkg/binder"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/auth"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"

	// MaxWebhookBodySize caps gateway webhook payloads.
	MaxWebhookBodySize = 64 << 10
)

// Billing is implemented by *subscription.Service.
type Billing interface {
	Catalog() subscription.Catalog
	CreateCheckout(ctx context.Context, ownerID string, in subscription.CheckoutInput) (*subscription.CheckoutLink, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// UsageReader is implemented by *idea.Service.
type UsageReader interface {
	Usage(ctx context.Context, ownerID string) (idea.Usage, error)
}

type Service struct {
	billing      Billing
	usage        UsageReader
	provider     string
	errorHandler handler.ErrorHandler
}

// NewService serves the routes of provider ("stripe" or "paddle").
func NewService(billing Billing, usage UsageReader, provider string, errorHandler handler.ErrorHandler) *Service {
	if provider == "" {
		provider = ProviderStripe
	}
	if errorHandler == nil {
		errorHandler = handler.DefaultErrorHandler
	}
	return &Service{
		billing:      billing,
		usage:        usage,
		provider:     provider,
		errorHandler: errorHandler,
	}
}

// SignatureHeader is the header carrying the webhook signature for provider.
func SignatureHeader(provider string) string {
	if provider == ProviderPaddle {
		return "Paddle-Signature"
	}
	return "Stripe-Signature"
}

type planResponse struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Price   priceResponse `json:"price"`
	Ideas   int64         `json:"ideas"`
	PriceID string        `json:"priceId,omitempty"`
}

type priceResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Interval string `json:"interval,omitempty"`
}

type checkoutRequest struct {
	PriceID  string `json:"priceId"`
	PlanName string `json:"planName"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// Handle mounts the billing routes; the router is meant for /api.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/plans", handler.Wrap(s.plans,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))

	r.With(s.requireUser).Get("/subscription", handler.Wrap(s.currentPlan,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))

	r.Route("/"+s.provider, func(r chi.Router) {
		r.With(s.requireUser).Post("/create-checkout", handler.Wrap(s.createCheckout,
			handler.WithBinder[checkoutRequest](binder.BindJSON()),
			handler.WithErrorHandler[checkoutRequest](s.errorHandler),
		))
		r.Post("/webhook", handler.Wrap(s.webhook,
			handler.WithErrorHandler[struct{}](s.errorHandler),
		))
	})

	return r
}

func (s *Service) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			s.errorHandler(handler.NewContext(w, r), mapError(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) plans(_ handler.Context, _ struct{}) handler.Response {
	catalog := s.billing.Catalog()
	out := make([]planResponse, 0, len(catalog))
	for _, p := range catalog {
		pr := planResponse{
			ID:      p.ID,
			Name:    p.Name,
			Price:   priceResponse{Amount: p.Price.Amount, Currency: p.Price.Currency},
			Ideas:   p.Quota,
			PriceID: p.PriceID,
		}
		if p.Paid() {
			pr.Price.Interval = "month"
		}
		out = append(out, pr)
	}
	return handler.JSON(out)
}

func (s *Service) currentPlan(ctx handler.Context, _ struct{}) handler.Response {
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return handler.Error(mapError(err))
	}

	usage, err := s.usage.Usage(ctx, user.ID)
	if err != nil {
		return handler.Error(mapError(err))
	}
	return handler.JSON(usage)
}

func (s *Service) createCheckout(ctx handler.Context, req checkoutRequest) handler.Response {
	user, err := auth.RequireUser(ctx)
	if err != nil {
		return handler.Error(mapError(err))
	}

	link, err := s.billing.CreateCheckout(ctx, user.ID, subscription.CheckoutInput{
		PriceID: req.PriceID,
		Plan:    req.PlanName,
		Email:   user.Email,
	})
	if err != nil {
		return handler.Error(mapError(err))
	}
	return handler.JSON(checkoutResponse{URL: link.URL})
}

func (s *Service) webhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, MaxWebhookBodySize))
	if err != nil {
		return handler.Error(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large", err))
	}

	if err := s.billing.HandleWebhook(ctx, payload, r.Header.Get(SignatureHeader(s.provider))); err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidSignature):
			return handler.Error(handler.NewHTTPError(http.StatusBadRequest, "Invalid signature", err))
		case subscription.IsConfigurationError(err):
			return handler.Error(err)
		}
		return handler.Error(handler.NewHTTPError(http.StatusInternalServerError, "Webhook handler failed", err))
	}

	return handler.JSON(map[string]bool{"received": true})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return handler.NewHTTPError(http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, subscription.ErrInvalidPlan):
		return handler.NewHTTPError(http.StatusBadRequest, "Invalid plan", err)
	case errors.Is(err, subscription.ErrPriceMismatch):
		return handler.NewHTTPError(http.StatusBadRequest, "Price does not match plan", err)
	case errors.Is(err, subscription.ErrMissingPriceID):
		return handler.NewHTTPError(http.StatusBadRequest, "Price ID required", err)
	}
	return err
}
