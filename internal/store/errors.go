package store

import "errors"

// ErrItemNotFound is returned when a requested item id has no row.
var ErrItemNotFound = errors.New("history item not found")
