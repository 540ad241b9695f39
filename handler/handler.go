package handler

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/ideabox/pkg/binder"
)

// HandlerFunc handles a request already decoded into R.
type HandlerFunc[R any] func(ctx Context, req R) Response

// Response renders itself to an http.ResponseWriter.
// A non-nil error is passed to the ErrorHandler.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind decodes the request into v.
type Bind func(r *http.Request, v any) error

// ErrorHandler writes a failed binding or render.
type ErrorHandler func(ctx Context, err error)

// Decorator wraps a HandlerFunc. The first decorator passed to
// WithDecorators is the outermost one.
type Decorator[R any] func(HandlerFunc[R]) HandlerFunc[R]

type Option[R any] func(*options[R])

type options[R any] struct {
	binders      []Bind
	errorHandler ErrorHandler
	decorators   []Decorator[R]
}

// WithBinder appends a request binder. Binders run in the order given and
// those returning binder.ErrBinderNotApplicable are skipped.
func WithBinder[R any](b Bind) Option[R] {
	return func(o *options[R]) {
		if b != nil {
			o.binders = append(o.binders, b)
		}
	}
}

func WithErrorHandler[R any](h ErrorHandler) Option[R] {
	return func(o *options[R]) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

func WithDecorators[R any](decorators ...Decorator[R]) Option[R] {
	return func(o *options[R]) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// DefaultErrorHandler writes the error as JSON without logging.
func DefaultErrorHandler(ctx Context, err error) {
	WriteError(ctx.ResponseWriter(), err)
}

// Wrap turns a typed HandlerFunc into an http.HandlerFunc.
func Wrap[R any](h HandlerFunc[R], opts ...Option[R]) http.HandlerFunc {
	o := &options[R]{errorHandler: DefaultErrorHandler}
	for _, opt := range opts {
		opt(o)
	}

	next := h
	for i := len(o.decorators) - 1; i >= 0; i-- {
		next = o.decorators[i](next)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := NewContext(w, r)

		var req R
		for _, bind := range o.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, binder.ErrBinderNotApplicable) {
					continue
				}
				o.errorHandler(ctx, err)
				return
			}
		}

		resp := next(ctx, req)
		if resp == nil {
			o.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			o.errorHandler(ctx, err)
		}
	}
}
