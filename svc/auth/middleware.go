package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ideabox/pkg/logger"
)

// Middleware resolves the caller from the request token and stores the
// user in the request context. Requests without a valid token pass
// through anonymously; handlers decide with RequireUser.
func Middleware(resolver Resolver, extract TokenExtractorFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if extract == nil {
		extract = FirstOf(BearerTokenExtractor, CookieTokenExtractor(DefaultCookieName))
	}
	if log == nil {
		log = logger.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// An empty token still reaches the resolver so that an
			// unconfigured provider is reported as such.
			token, _ := extract(r)

			ctx := r.Context()
			user, err := resolver.Resolve(ctx, token)
			switch {
			case err == nil:
				ctx = SetUserToContext(ctx, user)
			case errors.Is(err, ErrNotConfigured):
				ctx = context.WithValue(ctx, resolveErrorKey{}, err)
			case errors.Is(err, ErrMissingToken):
			default:
				log.DebugContext(ctx, "access token rejected", logger.Error(err), logger.Component("auth"))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
