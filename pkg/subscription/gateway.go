package subscription

import (
	"context"
	"errors"
)

// Gateway is a payment processor integration.
type Gateway interface {
	// CreateCheckoutLink starts a hosted subscription checkout. The owner and
	// plan must travel with the session so the completion webhook can be
	// reconciled.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ParseWebhook verifies the signature over payload and decodes it.
	// Verification failures wrap ErrInvalidSignature.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error)
}

// CheckoutRequest describes the session to create.
type CheckoutRequest struct {
	OwnerID    string
	Email      string
	Plan       string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
}

// Metadata keys attached to checkout sessions.
const (
	MetadataOwnerID = "userId"
	MetadataPlan    = "planName"
)

// UnconfiguredGateway stands in when no gateway credentials are present.
// Every call fails with ErrGatewayNotConfigured.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) CreateCheckoutLink(context.Context, CheckoutRequest) (*CheckoutLink, error) {
	return nil, ErrGatewayNotConfigured
}

func (UnconfiguredGateway) ParseWebhook(context.Context, []byte, string) (Event, error) {
	return nil, ErrGatewayNotConfigured
}

func validateCheckoutRequest(req CheckoutRequest) error {
	switch {
	case req.OwnerID == "":
		return ErrMissingOwnerID
	case req.PriceID == "":
		return ErrMissingPriceID
	}
	return nil
}

// IsConfigurationError reports whether err comes from a missing gateway setup.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrGatewayNotConfigured)
}
