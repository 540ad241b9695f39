package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/modules/billing"
	"github.com/dmitrymomot/ideabox/pkg/logger"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/auth"
	"github.com/dmitrymomot/ideabox/svc/datastore"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// fakeGateway accepts the signature "ok" and returns the configured event.
type fakeGateway struct {
	event    subscription.Event
	requests []subscription.CheckoutRequest
}

func (g *fakeGateway) CreateCheckoutLink(_ context.Context, req subscription.CheckoutRequest) (*subscription.CheckoutLink, error) {
	g.requests = append(g.requests, req)
	return &subscription.CheckoutLink{URL: "https://checkout.example.com/s/1", SessionID: "cs_1"}, nil
}

func (g *fakeGateway) ParseWebhook(_ context.Context, _ []byte, signature string) (subscription.Event, error) {
	if signature != "ok" {
		return nil, subscription.ErrInvalidSignature
	}
	return g.event, nil
}

type tokenResolver struct{}

func (tokenResolver) Resolve(_ context.Context, token string) (*auth.User, error) {
	if id, ok := strings.CutPrefix(token, "user-"); ok {
		return &auth.User{ID: id, Email: id + "@example.com"}, nil
	}
	return nil, auth.ErrMissingToken
}

type fixture struct {
	store   *datastore.Memory
	gateway *fakeGateway
	router  http.Handler
}

func newFixture(t *testing.T, provider string, gw subscription.Gateway) *fixture {
	t.Helper()

	store := datastore.NewMemory()
	subs := subscription.NewService(gw, store,
		subscription.WithCatalog(subscription.NewCatalog(subscription.PriceIDs{Pro: "price_pro", Unlimited: "price_unlimited"})),
		subscription.WithRedirects("https://app.example.com"),
	)
	ideas := idea.NewService(store, subs)

	r := chi.NewRouter()
	r.Use(auth.Middleware(tokenResolver{}, nil, nil))
	r.Mount("/api", billing.NewService(subs, ideas, provider, handler.NewErrorHandler(logger.Discard())).Handle())

	f := &fixture{store: store, router: r}
	if fg, ok := gw.(*fakeGateway); ok {
		f.gateway = fg
	}
	return f
}

func (f *fixture) do(method, target, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPlans(t *testing.T) {
	t.Parallel()

	f := newFixture(t, billing.ProviderStripe, &fakeGateway{})
	rec := f.do(http.MethodGet, "/api/plans", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":"free","name":"Free","price":{"amount":0,"currency":"USD"},"ideas":5},
		{"id":"pro","name":"Pro","price":{"amount":900,"currency":"USD","interval":"month"},"ideas":100,"priceId":"price_pro"},
		{"id":"unlimited","name":"Unlimited","price":{"amount":2900,"currency":"USD","interval":"month"},"ideas":-1,"priceId":"price_unlimited"}
	]`, rec.Body.String())
}

func TestSubscription(t *testing.T) {
	t.Parallel()

	f := newFixture(t, billing.ProviderStripe, &fakeGateway{})

	rec := f.do(http.MethodGet, "/api/subscription", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := f.store.InsertIdea(context.Background(), idea.Idea{OwnerID: "u1"})
	require.NoError(t, err)

	rec = f.do(http.MethodGet, "/api/subscription", "user-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"plan":"free","status":"active","used":1,"limit":5}`, rec.Body.String())
}

func TestCreateCheckout(t *testing.T) {
	t.Parallel()

	t.Run("requires session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{})
		rec := f.do(http.MethodPost, "/api/stripe/create-checkout", "", `{"priceId":"price_pro","planName":"pro"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, f.gateway.requests)
	})

	t.Run("creates session with metadata", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{})
		rec := f.do(http.MethodPost, "/api/stripe/create-checkout", "user-u1", `{"priceId":"price_pro","planName":"pro"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"url":"https://checkout.example.com/s/1"}`, rec.Body.String())
		require.Len(t, f.gateway.requests, 1)
		assert.Equal(t, subscription.CheckoutRequest{
			OwnerID:    "u1",
			Email:      "u1@example.com",
			Plan:       "pro",
			PriceID:    "price_pro",
			SuccessURL: "https://app.example.com/dashboard?success=true",
			CancelURL:  "https://app.example.com/pricing",
		}, f.gateway.requests[0])
	})

	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "free plan", body: `{"planName":"free"}`, want: `{"error":"Invalid plan"}`},
		{name: "unknown plan", body: `{"planName":"gold"}`, want: `{"error":"Invalid plan"}`},
		{name: "price mismatch", body: `{"priceId":"price_unlimited","planName":"pro"}`, want: `{"error":"Price does not match plan"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, billing.ProviderStripe, &fakeGateway{})
			rec := f.do(http.MethodPost, "/api/stripe/create-checkout", "user-u1", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
			assert.Empty(t, f.gateway.requests)
		})
	}

	t.Run("unconfigured gateway", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, subscription.UnconfiguredGateway{})
		rec := f.do(http.MethodPost, "/api/stripe/create-checkout", "user-u1", `{"planName":"pro"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"`+subscription.ErrGatewayNotConfigured.Error()+`"}`, rec.Body.String())
	})
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	checkout := subscription.CheckoutCompleted{
		Meta:            subscription.Meta{ID: "evt_1", Type: "checkout.session.completed"},
		OwnerID:         "u1",
		Plan:            subscription.PlanPro,
		CustomerRef:     "cus_1",
		SubscriptionRef: "sub_1",
	}

	t.Run("invalid signature writes nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{event: checkout})
		rec := f.do(http.MethodPost, "/api/stripe/webhook", "", `{}`, "Stripe-Signature", "bad")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, rec.Body.String())
		_, err := f.store.GetSubscription(context.Background(), "u1")
		require.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("checkout completed activates plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{event: checkout})
		rec := f.do(http.MethodPost, "/api/stripe/webhook", "", `{}`, "Stripe-Signature", "ok")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		sub, err := f.store.GetSubscription(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanPro, sub.Plan)
		assert.Equal(t, subscription.StatusActive, sub.Status)
		assert.Equal(t, "sub_1", sub.SubscriptionRef)

		rec = f.do(http.MethodGet, "/api/subscription", "user-u1", "")
		assert.JSONEq(t, `{"plan":"pro","status":"active","used":0,"limit":100}`, rec.Body.String())
	})

	t.Run("paddle route uses paddle header", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderPaddle, &fakeGateway{event: checkout})

		rec := f.do(http.MethodPost, "/api/stripe/webhook", "", `{}`, "Stripe-Signature", "ok")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = f.do(http.MethodPost, "/api/paddle/webhook", "", `{}`, "Paddle-Signature", "ok")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhandled event is acknowledged", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{event: subscription.Unhandled{Meta: subscription.Meta{ID: "evt_2", Type: "invoice.paid"}}})
		rec := f.do(http.MethodPost, "/api/stripe/webhook", "", `{}`, "Stripe-Signature", "ok")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("body over limit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, billing.ProviderStripe, &fakeGateway{event: checkout})
		rec := f.do(http.MethodPost, "/api/stripe/webhook", "", strings.Repeat("a", billing.MaxWebhookBodySize+1), "Stripe-Signature", "ok")
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestWebhook_SignedUndecodableEventIsAcknowledged(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"
	gw, err := subscription.NewStripeGateway(subscription.StripeConfig{SecretKey: "sk_test", WebhookSecret: secret})
	require.NoError(t, err)
	f := newFixture(t, billing.ProviderStripe, gw)

	payload := `{
		"id": "evt_bad",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "metadata": "oops"}}
	}`
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	signature := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	rec := f.do(http.MethodPost, "/api/stripe/webhook", "", payload, "Stripe-Signature", signature)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/stripe/webhook", "", payload, "Stripe-Signature", "t=1,v1=00")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingStore struct {
	*datastore.Memory
}

func (failingStore) UpsertSubscription(context.Context, subscription.Subscription) error {
	return errors.New("connection reset")
}

func TestWebhook_StoreFailureAsksForRetry(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{event: subscription.CheckoutCompleted{
		Meta: subscription.Meta{ID: "evt_1", Type: "checkout.session.completed"}, OwnerID: "u1", Plan: "pro",
	}}
	subs := subscription.NewService(gw, failingStore{datastore.NewMemory()})

	r := chi.NewRouter()
	r.Mount("/api", billing.NewService(subs, nil, billing.ProviderStripe, nil).Handle())

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "ok")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Webhook handler failed"}`, rec.Body.String())
}
