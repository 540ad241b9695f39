// Package auth resolves the signed-in user from Supabase access tokens.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("auth: unauthorized")
	ErrNotConfigured = errors.New("auth: identity provider is not configured")
	ErrMissingToken  = errors.New("auth: missing access token")
	ErrInvalidToken  = errors.New("auth: invalid access token")
)

// DefaultCookieName is the cookie carrying the Supabase access token.
const DefaultCookieName = "sb-access-token"

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
	Role  string
}

// Config is read from the environment.
type Config struct {
	SupabaseURL string `env:"SUPABASE_URL"`
	JWTSecret   string `env:"SUPABASE_JWT_SECRET"`
	Audience    string `env:"SUPABASE_JWT_AUDIENCE" envDefault:"authenticated"`
	CookieName  string `env:"AUTH_COOKIE_NAME" envDefault:"sb-access-token"`
}

// Configured reports whether tokens can be verified.
func (c Config) Configured() bool {
	return c.JWTSecret != ""
}

// Resolver turns an access token into a User.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*User, error)
}

// Unconfigured rejects every token with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Resolve(context.Context, string) (*User, error) {
	return nil, ErrNotConfigured
}

// TokenExtractorFunc extracts a token from an HTTP request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if err != nil || cookie.Value == "" {
			return "", ErrMissingToken
		}
		return cookie.Value, nil
	}
}

// FirstOf returns the first token any extractor finds.
func FirstOf(extractors ...TokenExtractorFunc) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		for _, extract := range extractors {
			if token, err := extract(r); err == nil {
				return token, nil
			}
		}
		return "", ErrMissingToken
	}
}
