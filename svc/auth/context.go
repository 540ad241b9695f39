package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/ideabox/pkg/logger"
)

type userContextKey struct{}

type resolveErrorKey struct{}

// SetUserToContext stores the authenticated user for the rest of the chain.
func SetUserToContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns nil when no user was stored.
func GetUserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// RequireUser returns the stored user, ErrNotConfigured when the resolver
// could not run at all, or ErrUnauthorized.
func RequireUser(ctx context.Context) (*User, error) {
	if user := GetUserFromContext(ctx); user != nil {
		return user, nil
	}
	if err, _ := ctx.Value(resolveErrorKey{}).(error); errors.Is(err, ErrNotConfigured) {
		return nil, ErrNotConfigured
	}
	return nil, ErrUnauthorized
}

// LoggerExtractor adds owner_id to log records of authenticated requests.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if user := GetUserFromContext(ctx); user != nil {
			return logger.OwnerID(user.ID), true
		}
		return slog.Attr{}, false
	}
}
