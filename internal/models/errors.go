package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store, the inventory manager and
// the session service wraps exactly one of these.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NotFound
var (
	ErrLotNotFound     = fmt.Errorf("parking lot %w", ErrNotFound)
	ErrLevelNotFound   = fmt.Errorf("parking level %w", ErrNotFound)
	ErrSpotNotFound    = fmt.Errorf("parking spot %w", ErrNotFound)
	ErrVehicleNotFound = fmt.Errorf("vehicle %w", ErrNotFound)
	ErrTicketNotFound  = fmt.Errorf("ticket %w", ErrNotFound)
)

// Conflict
var (
	ErrDuplicate       = fmt.Errorf("duplicate record: %w", ErrConflict)
	ErrSpotTaken       = fmt.Errorf("spot already occupied: %w", ErrConflict)
	ErrLevelBusy       = fmt.Errorf("level locked by another request: %w", ErrConflict)
	ErrNoSpotAvailable = fmt.Errorf("no available spots on this level: %w", ErrConflict)
)

// InvalidState
var (
	ErrLevelUnavailable = fmt.Errorf("selected level is full or closed: %w", ErrInvalidState)
	ErrAlreadyClosed    = fmt.Errorf("ticket already closed: %w", ErrInvalidState)
	ErrVehicleParked    = fmt.Errorf("vehicle already has an open ticket: %w", ErrInvalidState)
)

// ErrMissingVehicleInfo is returned when a park request carries neither a
// vehicle reference nor a complete set of new-vehicle fields.
var ErrMissingVehicleInfo = fmt.Errorf("missing vehicle info or vehicle_id: %w", ErrValidation)

// ValidationError describes a single invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid wraps err (typically an ozzo-validation error map) as a validation error.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Unavailable wraps err as a store connectivity failure.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool         { return errors.Is(err, ErrConflict) }
func IsInvalidState(err error) bool     { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
