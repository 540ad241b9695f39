package binder

import "errors"

// Common binding errors
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrBodyTooLarge         = errors.New("request body too large")
	ErrBinderNotApplicable  = errors.New("binder not applicable")
)
