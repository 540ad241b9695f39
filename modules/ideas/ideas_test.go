package ideas_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/modules/ideas"
	"github.com/dmitrymomot/ideabox/pkg/logger"
	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/auth"
	"github.com/dmitrymomot/ideabox/svc/datastore"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

// staticResolver accepts the token "user-<id>" as user <id>.
type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, token string) (*auth.User, error) {
	if id, ok := strings.CutPrefix(token, "user-"); ok {
		return &auth.User{ID: id}, nil
	}
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	return nil, auth.ErrInvalidToken
}

func newServer(t *testing.T, store interface {
	idea.Store
	subscription.Store
}, resolver auth.Resolver) http.Handler {
	t.Helper()

	subs := subscription.NewService(subscription.UnconfiguredGateway{}, store)
	svc := ideas.NewService(idea.NewService(store, subs), handler.NewErrorHandler(logger.Discard()))

	r := chi.NewRouter()
	r.Use(auth.Middleware(resolver, nil, nil))
	r.Mount("/api/ideas", svc.Handle())
	return r
}

func do(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdeasAPI_RequiresSession(t *testing.T) {
	t.Parallel()

	h := newServer(t, datastore.NewMemory(), staticResolver{})
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		rec := do(t, h, method, "/api/ideas?id=x", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String(), method)
	}

	rec := do(t, h, http.MethodGet, "/api/ideas", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdeasAPI_FreePlanLimit(t *testing.T) {
	t.Parallel()

	store := datastore.NewMemory()
	h := newServer(t, store, staticResolver{})

	for i := range 5 {
		rec := do(t, h, http.MethodPost, "/api/ideas", "user-u1", `{"title":"idea","description":"d","category":"Product","tags":["a"]}`)
		require.Equal(t, http.StatusOK, rec.Code, "idea %d: %s", i, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"owner_id":"u1"`)
	}

	rec := do(t, h, http.MethodPost, "/api/ideas", "user-u1", `{"title":"sixth"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Idea limit reached. Please upgrade your plan."}`, rec.Body.String())

	n, err := store.CountIdeas(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestIdeasAPI_PaidPlan(t *testing.T) {
	t.Parallel()

	store := datastore.NewMemory()
	require.NoError(t, store.UpsertSubscription(context.Background(), subscription.Subscription{
		OwnerID: "u1", Plan: subscription.PlanUnlimited, Status: subscription.StatusActive, UpdatedAt: time.Now(),
	}))
	h := newServer(t, store, staticResolver{})

	for range 7 {
		rec := do(t, h, http.MethodPost, "/api/ideas", "user-u1", `{"title":"idea"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestIdeasAPI_ListAndDelete(t *testing.T) {
	t.Parallel()

	store := datastore.NewMemory()
	h := newServer(t, store, staticResolver{})
	ctx := context.Background()

	first, err := store.InsertIdea(ctx, idea.Idea{OwnerID: "u1", Title: "first"})
	require.NoError(t, err)
	foreign, err := store.InsertIdea(ctx, idea.Idea{OwnerID: "u2", Title: "foreign"})
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/api/ideas", "user-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), first.ID)
	assert.NotContains(t, rec.Body.String(), foreign.ID)

	rec = do(t, h, http.MethodDelete, "/api/ideas", "user-u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"ID required"}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/ideas?id="+foreign.ID, "user-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	n, _ := store.CountIdeas(ctx, "u2")
	assert.Equal(t, int64(1), n)

	rec = do(t, h, http.MethodDelete, "/api/ideas?id="+first.ID, "user-u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/ideas", "user-u1", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIdeasAPI_Categories(t *testing.T) {
	t.Parallel()

	h := newServer(t, datastore.NewMemory(), staticResolver{})
	rec := do(t, h, http.MethodGet, "/api/ideas/categories", "user-u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Product","Feature","Marketing","Design","Technical","Business","Other"]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/ideas/categories", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdeasAPI_PlainTextBody(t *testing.T) {
	t.Parallel()

	h := newServer(t, datastore.NewMemory(), staticResolver{})
	req := httptest.NewRequest(http.MethodPost, "/api/ideas", strings.NewReader(`{"title":"from a form"}`))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("Authorization", "Bearer user-u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"from a form"`)
}

func TestIdeasAPI_MalformedBody(t *testing.T) {
	t.Parallel()

	h := newServer(t, datastore.NewMemory(), staticResolver{})
	rec := do(t, h, http.MethodPost, "/api/ideas", "user-u1", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdeasAPI_Unconfigured(t *testing.T) {
	t.Parallel()

	t.Run("datastore", func(t *testing.T) {
		t.Parallel()
		h := newServer(t, datastore.Unconfigured{}, staticResolver{})
		rec := do(t, h, http.MethodGet, "/api/ideas", "user-u1", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"`+datastore.ErrNotConfigured.Error()+`"}`, rec.Body.String())
	})

	t.Run("identity provider", func(t *testing.T) {
		t.Parallel()
		h := newServer(t, datastore.NewMemory(), auth.Unconfigured{})
		rec := do(t, h, http.MethodGet, "/api/ideas", "user-u1", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"`+auth.ErrNotConfigured.Error()+`"}`, rec.Body.String())
	})
}

type failingIdeas struct{}

func (failingIdeas) List(context.Context, string) ([]idea.Idea, error) {
	return nil, errors.New("relation \"ideas\" does not exist")
}

func (failingIdeas) Create(context.Context, string, idea.Input) (*idea.Idea, error) {
	return nil, errors.New("insert failed")
}

func (failingIdeas) Delete(context.Context, string, string) error {
	return errors.New("delete failed")
}

func TestIdeasAPI_StoreErrorMessage(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(auth.Middleware(staticResolver{}, nil, nil))
	r.Mount("/api/ideas", ideas.NewService(failingIdeas{}, handler.NewErrorHandler(logger.Discard())).Handle())

	rec := do(t, r, http.MethodGet, "/api/ideas", "user-u1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"relation \"ideas\" does not exist"}`, rec.Body.String())

	rec = do(t, r, http.MethodDelete, "/api/ideas?id=1", "user-u1", "")
	assert.JSONEq(t, `{"error":"delete failed"}`, rec.Body.String())
}
