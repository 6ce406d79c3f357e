package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// CapacitySlot is the capacity record of one resource on one date
type CapacitySlot struct {
	ID               int64
	Resource         ResourceKey
	Date             types.Date
	TotalCapacity    int
	ReservedCapacity int
	IsBlocked        bool
	BlockReason      *string
	HolderBookingID  *int64 // set while a single booking holds the whole slot
	Version          int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableCapacity returns free capacity; a blocked slot always reports 0
func (s *CapacitySlot) AvailableCapacity() int {
	if s.IsBlocked {
		return 0
	}
	free := s.TotalCapacity - s.ReservedCapacity
	if free < 0 {
		return 0
	}
	return free
}

// UnblockedAvailableCapacity returns free capacity ignoring the block flag
func (s *CapacitySlot) UnblockedAvailableCapacity() int {
	free := s.TotalCapacity - s.ReservedCapacity
	if free < 0 {
		return 0
	}
	return free
}

// IsFull returns true if nothing can be reserved on this slot
func (s *CapacitySlot) IsFull() bool {
	return s.AvailableCapacity() == 0
}

// IsUntouched returns true if the slot holds no reservations
func (s *CapacitySlot) IsUntouched() bool {
	return s.ReservedCapacity == 0
}

// OccupancyRate returns the reserved share as a percentage (0-100)
func (s *CapacitySlot) OccupancyRate() float64 {
	if s.TotalCapacity == 0 {
		return 0
	}
	return float64(s.ReservedCapacity) / float64(s.TotalCapacity) * 100
}

// CheckInvariant returns an error if 0 <= reserved <= total does not hold
func (s *CapacitySlot) CheckInvariant() error {
	if s.TotalCapacity < 0 || s.ReservedCapacity < 0 || s.ReservedCapacity > s.TotalCapacity {
		return ErrInvariantViolated
	}
	return nil
}

// AvailabilityCandidate is a resource with enough free capacity on a date
type AvailabilityCandidate struct {
	Resource          ResourceKey
	AvailableCapacity int
}

// AvailabilityResult answers "is there any resource of this type free on that date"
type AvailabilityResult struct {
	ResourceType     ResourceType
	Date             types.Date
	RequiredCapacity int
	HasAvailability  bool
	Candidates       []AvailabilityCandidate
}

// CapacityTotals aggregated counters over a set of slots
type CapacityTotals struct {
	TotalSlots        int
	BlockedSlots      int
	TotalCapacity     int
	ReservedCapacity  int
	AvailableCapacity int // blocked slots contribute 0
}

// Add accumulates other into t
func (t *CapacityTotals) Add(other CapacityTotals) {
	t.TotalSlots += other.TotalSlots
	t.BlockedSlots += other.BlockedSlots
	t.TotalCapacity += other.TotalCapacity
	t.ReservedCapacity += other.ReservedCapacity
	t.AvailableCapacity += other.AvailableCapacity
}

// AvailabilitySummary aggregate view over a date range
type AvailabilitySummary struct {
	StartDate    types.Date
	EndDate      types.Date
	ResourceType *ResourceType
	Totals       CapacityTotals
	ByType       map[ResourceType]CapacityTotals
}
