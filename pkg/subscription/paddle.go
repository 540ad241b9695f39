package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// Paddle event types the service reacts to.
const (
	PaddleTransactionCompleted = "transaction.completed"
	PaddleSubscriptionUpdated  = "subscription.updated"
	PaddleSubscriptionCanceled = "subscription.canceled"
)

// PaddleConfig is read from the environment.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

func (c PaddleConfig) Configured() bool {
	return c.APIKey != "" && c.WebhookSecret != ""
}

// PaddleGateway implements Gateway on Paddle Billing transactions.
type PaddleGateway struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

func NewPaddleGateway(cfg PaddleConfig) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		sdk *paddle.SDK
		err error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}

	return &PaddleGateway{
		client:   sdk,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreateCheckoutLink creates a transaction for the price and returns its
// hosted checkout URL. Owner and plan ride along as custom data.
func (g *PaddleGateway) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})
	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			MetadataOwnerID: req.OwnerID,
			MetadataPlan:    req.Plan,
		},
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := g.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, errors.Join(ErrCheckoutFailed, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil || *tx.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{URL: *tx.Checkout.URL, SessionID: tx.ID}, nil
}

// ParseWebhook verifies the Paddle-Signature header and decodes the event.
// The SDK verifier works on requests, so one is rebuilt around the payload.
func (g *PaddleGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	ok, err := g.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !ok {
		return nil, ErrInvalidSignature
	}

	return parsePaddleEvent(payload), nil
}

type paddleNotification struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ID             string         `json:"id"`
		Status         string         `json:"status"`
		CustomerID     string         `json:"customer_id"`
		SubscriptionID string         `json:"subscription_id"`
		CustomData     map[string]any `json:"custom_data"`
	} `json:"data"`
}

// parsePaddleEvent runs after the signature check, so a body that does not
// decode becomes Unhandled with the cause attached.
func parsePaddleEvent(payload []byte) Event {
	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		var head struct {
			EventID   string `json:"event_id"`
			EventType string `json:"event_type"`
		}
		_ = json.Unmarshal(payload, &head)
		return Unhandled{Meta: Meta{ID: head.EventID, Type: head.EventType}, Err: errors.Join(ErrInvalidPayload, err)}
	}
	meta := Meta{ID: n.EventID, Type: n.EventType}

	switch n.EventType {
	case PaddleTransactionCompleted:
		return CheckoutCompleted{
			Meta:            meta,
			OwnerID:         customString(n.Data.CustomData, MetadataOwnerID),
			Plan:            customString(n.Data.CustomData, MetadataPlan),
			CustomerRef:     n.Data.CustomerID,
			SubscriptionRef: n.Data.SubscriptionID,
		}
	case PaddleSubscriptionUpdated, PaddleSubscriptionCanceled:
		return SubscriptionChanged{
			Meta:            meta,
			SubscriptionRef: n.Data.ID,
			Status:          n.Data.Status,
			Deleted:         n.EventType == PaddleSubscriptionCanceled,
		}
	}

	return Unhandled{Meta: meta}
}

func customString(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}
