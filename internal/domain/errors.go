package domain

import "errors"

// ErrNotFound is returned when a referenced contract or schedule entry does
// not exist.
var ErrNotFound = errors.New("not found")
