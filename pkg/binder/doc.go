// Package binder decodes HTTP requests into typed structs for handler.Wrap.
//
// BindJSON reads the body, enforcing a size limit and, unless told
// otherwise, an application/json media type. BindQuery fills fields tagged
// `query:"name"` from the URL query; slices take comma separated values.
//
// Failures wrap ErrInvalidJSON, ErrInvalidQuery, ErrUnsupportedMediaType or
// ErrBodyTooLarge so the handler package can map them to status codes.
package binder
