package datastore

import "errors"

// ErrNotConfigured is returned by every Unconfigured method.
var ErrNotConfigured = errors.New("datastore: database is not configured")
