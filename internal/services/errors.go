package services

import (
	"errors"
	"fmt"

	"github.com/anonto42/walltribe/backend/internal/repositories"
)

var (
	// ErrNotFound is returned when a referenced user, image, request or friendship is absent
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated is returned when no user can be resolved for the caller
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidArgument is returned for self-targeting and malformed identifiers
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden is returned when the caller does not own the resource it mutates
	ErrForbidden = errors.New("forbidden")
	// ErrInconsistent is returned when image counters disagree with their facts and could not be repaired
	ErrInconsistent = errors.New("inconsistent counters")
)

// storageError maps repository sentinels onto the service taxonomy. Any other error passes through.
func storageError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repositories.ErrInvalidID):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return err
}
