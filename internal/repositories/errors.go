package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInvalidID is returned when an identifier is not a valid storage key
	ErrInvalidID = errors.New("invalid id format")
)
