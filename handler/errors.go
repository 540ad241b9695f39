package handler

import "errors"

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError carries the status code and client-facing message for an
// error. Err, when set, is the underlying cause and is only logged.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e HTTPError) Error() string {
	return e.Message
}

func (e HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds an HTTPError wrapping err.
func NewHTTPError(code int, message string, err error) HTTPError {
	return HTTPError{Code: code, Message: message, Err: err}
}
