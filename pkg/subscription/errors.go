package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrInvalidPayload        = errors.New("invalid webhook payload")
	ErrGatewayNotConfigured  = errors.New("payment gateway is not configured")
	ErrMissingAPIKey         = errors.New("payment gateway API key is required")
	ErrMissingWebhookSecret  = errors.New("payment gateway webhook secret is required")
	ErrInvalidEnvironment    = errors.New("invalid payment gateway environment")
	ErrNoCheckoutURL         = errors.New("payment gateway returned no checkout URL")
	ErrCheckoutFailed        = errors.New("failed to create checkout session")
	ErrInvalidPlan           = errors.New("plan is not available for checkout")
	ErrPriceMismatch         = errors.New("price does not belong to the requested plan")
	ErrMissingPriceID        = errors.New("price ID is required")
	ErrMissingOwnerID        = errors.New("owner ID is required")
	ErrFailedToReconcileHook = errors.New("failed to apply webhook event")
)
