package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// claims is the subset of a Supabase access token we read.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SupabaseResolver verifies HS256 access tokens signed with the project's
// JWT secret.
type SupabaseResolver struct {
	secret []byte
	parser *jwt.Parser
}

func NewSupabaseResolver(cfg Config) (*SupabaseResolver, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(defaultLeeway),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &SupabaseResolver{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}, nil
}

func (s *SupabaseResolver) Resolve(_ context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var c claims
	parsed, err := s.parser.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &User{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
