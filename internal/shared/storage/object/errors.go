package object

import "errors"

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")
