package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxBodySize caps JSON request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// JSONOption configures BindJSON.
type JSONOption func(*jsonOptions)

type jsonOptions struct {
	limit        int64
	anyMediaType bool
}

// WithMaxBodySize sets the body size limit in bytes.
func WithMaxBodySize(limit int64) JSONOption {
	return func(o *jsonOptions) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// WithAnyMediaType decodes the body as JSON whatever Content-Type says.
func WithAnyMediaType() JSONOption {
	return func(o *jsonOptions) {
		o.anyMediaType = true
	}
}

// BindJSON creates a JSON body binder. A missing Content-Type is accepted;
// any other media type than application/json is rejected unless
// WithAnyMediaType is set. Unknown fields are ignored.
//
// Example:
//
//	r.Post("/api/ideas", handler.Wrap(s.create,
//		handler.WithBinder[idea.Input](binder.BindJSON(binder.WithAnyMediaType())),
//	))
func BindJSON(opts ...JSONOption) func(r *http.Request, v any) error {
	o := jsonOptions{limit: DefaultMaxBodySize}
	for _, opt := range opts {
		opt(&o)
	}
	limit := o.limit

	return func(r *http.Request, v any) error {
		if ct := r.Header.Get("Content-Type"); ct != "" && !o.anyMediaType {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, ct)
			}
		}

		body := io.LimitReader(r.Body, limit+1)
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if int64(len(data)) > limit {
			return ErrBodyTooLarge
		}
		if len(data) == 0 {
			return fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}

		if err := json.Unmarshal(data, v); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return fmt.Errorf("%w: %v at offset %d", ErrInvalidJSON, syntaxErr, syntaxErr.Offset)
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}

		return nil
	}
}
