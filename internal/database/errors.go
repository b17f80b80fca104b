package database

import "errors"

// ErrNotFound is returned when a query matches no rows. Repositories wrap
// it with context, so callers should test with errors.Is.
var ErrNotFound = errors.New("record not found")
