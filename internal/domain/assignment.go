package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// AssignmentStatus represents the status of an exclusive assignment
type AssignmentStatus string

const (
	AssignmentScheduled AssignmentStatus = "scheduled"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// BlockingAssignmentStatuses statuses that take part in overlap checks
var BlockingAssignmentStatuses = []AssignmentStatus{
	AssignmentScheduled,
	AssignmentActive,
}

// ExclusiveAssignment whole-resource booking (one vehicle, one driver) for a date range
type ExclusiveAssignment struct {
	ID                 uuid.UUID
	Resource           ResourceKey
	StartDate          types.Date
	EndDate            types.Date // inclusive
	Status             AssignmentStatus
	BookingID          *int64
	Notes              *string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Range returns the assignment's inclusive date range
func (a *ExclusiveAssignment) Range() DateRange {
	return DateRange{Start: a.StartDate, End: a.EndDate}
}

// IsBlocking returns true if the assignment still occupies its resource
func (a *ExclusiveAssignment) IsBlocking() bool {
	return a.Status == AssignmentScheduled || a.Status == AssignmentActive
}

// CanTransitionTo checks the scheduled -> active -> completed / cancelled lifecycle
func (a *ExclusiveAssignment) CanTransitionTo(next AssignmentStatus) bool {
	switch a.Status {
	case AssignmentScheduled:
		return next == AssignmentActive || next == AssignmentCompleted || next == AssignmentCancelled
	case AssignmentActive:
		return next == AssignmentCompleted || next == AssignmentCancelled
	default:
		return false
	}
}

// ParseAssignmentStatus converts a string to AssignmentStatus with validation
func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch st := AssignmentStatus(s); st {
	case AssignmentScheduled, AssignmentActive, AssignmentCompleted, AssignmentCancelled:
		return st, nil
	default:
		return "", ErrInvalidInput
	}
}
