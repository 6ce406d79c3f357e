package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

var (
	// ErrInsufficientCapacity requested quantity exceeds available capacity
	ErrInsufficientCapacity = errors.New("insufficient capacity")

	// ErrResourceBlocked slot is under a maintenance/blackout hold
	ErrResourceBlocked = errors.New("resource blocked")

	// ErrOverlapConflict exclusive assignment would overlap an existing one
	ErrOverlapConflict = errors.New("assignment overlaps an existing assignment")

	// ErrTemporarilyUnavailable storage unavailable or lock wait exceeded; retry with backoff
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")

	// ErrInvalidInput invalid request data
	ErrInvalidInput = errors.New("invalid input data")

	// ErrHoldNotFound booking has no holds
	ErrHoldNotFound = errors.New("reservation hold not found")

	// ErrHoldExpired booking holds expired before confirmation
	ErrHoldExpired = errors.New("reservation hold expired")

	// ErrAssignmentNotFound assignment does not exist
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrInvalidTransition assignment status change is not allowed
	ErrInvalidTransition = errors.New("invalid assignment status transition")

	// ErrInvariantViolated 0 <= reserved <= total does not hold
	ErrInvariantViolated = errors.New("slot capacity invariant violated")
)

// IsBusinessError reports whether err is an expected outcome the caller should see as is
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrInsufficientCapacity,
		ErrResourceBlocked,
		ErrOverlapConflict,
		ErrInvalidInput,
		ErrHoldNotFound,
		ErrHoldExpired,
		ErrAssignmentNotFound,
		ErrInvalidTransition,
		ErrTemporarilyUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// InsufficientCapacityError is returned when a reserve asks for more than is free
type InsufficientCapacityError struct {
	Resource  ResourceKey
	Date      types.Date
	Requested int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("%s: %s on %s requested=%d available=%d",
		ErrInsufficientCapacity, e.Resource, e.Date, e.Requested, e.Available)
}

func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// ResourceBlockedError is returned when a blocked slot is reserved or assigned
type ResourceBlockedError struct {
	Resource ResourceKey
	Date     types.Date
	Reason   string
}

func (e *ResourceBlockedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s on %s", ErrResourceBlocked, e.Resource, e.Date)
	}
	return fmt.Sprintf("%s: %s on %s (%s)", ErrResourceBlocked, e.Resource, e.Date, e.Reason)
}

func (e *ResourceBlockedError) Is(target error) bool {
	return target == ErrResourceBlocked
}

// OverlapConflictError carries the ids of the assignments in the way
type OverlapConflictError struct {
	Resource       ResourceKey
	ConflictingIDs []uuid.UUID
}

func (e *OverlapConflictError) Error() string {
	if len(e.ConflictingIDs) == 0 {
		return fmt.Sprintf("%s: %s", ErrOverlapConflict, e.Resource)
	}
	ids := make([]string, len(e.ConflictingIDs))
	for i, id := range e.ConflictingIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("%s: %s conflicts with [%s]", ErrOverlapConflict, e.Resource, strings.Join(ids, ", "))
}

func (e *OverlapConflictError) Is(target error) bool {
	return target == ErrOverlapConflict
}

// ReleaseExceedsReservedError is a warning: the release was clamped to what was reserved.
// It is reported next to a successful result, never as the returned error.
type ReleaseExceedsReservedError struct {
	Resource  ResourceKey
	Date      types.Date
	Requested int
	Released  int
}

func (e *ReleaseExceedsReservedError) Error() string {
	return fmt.Sprintf("release exceeds reserved: %s on %s requested=%d released=%d",
		e.Resource, e.Date, e.Requested, e.Released)
}

// Discrepancy returns how many units were asked for but not held
func (e *ReleaseExceedsReservedError) Discrepancy() int {
	return e.Requested - e.Released
}
