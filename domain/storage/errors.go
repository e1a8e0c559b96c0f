package storage

import "errors"

// ErrNotFound indicates the requested entity was not found. Store
// implementations wrap it with the entity label.
var ErrNotFound = errors.New("entity not found")
