package account

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ideabox/handler"
	"github.com/dmitrymomot/ideabox/pkg/binder"
	"github.com/dmitrymomot/ideabox/svc/auth"
)

// sessionTTL matches the default lifetime of a Supabase access token.
const sessionTTL = time.Hour

// SupabaseService signs users in through Supabase's hosted Google OAuth
// flow and keeps the resulting access token in an HttpOnly cookie.
type SupabaseService struct {
	cfg          auth.Config
	appURL       string
	resolver     auth.Resolver
	secure       bool
	errorHandler handler.ErrorHandler
}

func NewSupabaseService(cfg auth.Config, appURL string, resolver auth.Resolver, secureCookie bool, errorHandler handler.ErrorHandler) *SupabaseService {
	if cfg.CookieName == "" {
		cfg.CookieName = auth.DefaultCookieName
	}
	if errorHandler == nil {
		errorHandler = handler.DefaultErrorHandler
	}
	return &SupabaseService{
		cfg:          cfg,
		appURL:       strings.TrimRight(appURL, "/"),
		resolver:     resolver,
		secure:       secureCookie,
		errorHandler: errorHandler,
	}
}

type SessionRequest struct {
	AccessToken string `json:"access_token"`
}

func (s *SupabaseService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/signin", handler.Wrap(s.signin,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))
	r.Post("/session", handler.Wrap(s.session,
		handler.WithBinder[SessionRequest](binder.BindJSON()),
		handler.WithErrorHandler[SessionRequest](s.errorHandler),
	))
	r.Post("/signout", handler.Wrap(s.signout,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))

	return r
}

// AuthorizeURL is where the browser starts the Google sign-in.
func (s *SupabaseService) AuthorizeURL() (string, error) {
	if s.cfg.SupabaseURL == "" {
		return "", auth.ErrNotConfigured
	}
	q := url.Values{}
	q.Set("provider", "google")
	q.Set("redirect_to", s.appURL+"/auth/callback")
	return strings.TrimRight(s.cfg.SupabaseURL, "/") + "/auth/v1/authorize?" + q.Encode(), nil
}

func (s *SupabaseService) signin(_ handler.Context, _ struct{}) handler.Response {
	target, err := s.AuthorizeURL()
	if err != nil {
		return handler.Error(err)
	}
	return handler.Redirect(target)
}

func (s *SupabaseService) session(ctx handler.Context, req SessionRequest) handler.Response {
	user, err := s.resolver.Resolve(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			return handler.Error(err)
		}
		return handler.Error(handler.NewHTTPError(http.StatusUnauthorized, "Unauthorized", err))
	}

	return handler.WithCookies(
		handler.JSON(map[string]string{"id": user.ID, "email": user.Email}),
		s.cookie(req.AccessToken, int(sessionTTL.Seconds())),
	)
}

func (s *SupabaseService) signout(_ handler.Context, _ struct{}) handler.Response {
	return handler.WithCookies(
		handler.JSON(map[string]bool{"success": true}),
		s.cookie("", -1),
	)
}

func (s *SupabaseService) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
