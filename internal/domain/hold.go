package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// HoldStatus state of a claim on shared capacity
type HoldStatus string

const (
	// HoldStatusHeld pending claim; released by the sweep once expired
	HoldStatusHeld HoldStatus = "held"
	// HoldStatusConfirmed booking confirmed, the claim no longer expires
	HoldStatusConfirmed HoldStatus = "confirmed"
)

// ReservationHold is a claim of one booking on one slot
type ReservationHold struct {
	Resource  ResourceKey
	Date      types.Date
	BookingID int64
	Quantity  int
	Status    HoldStatus
	CreatedAt time.Time
	ExpiresAt *time.Time // nil once confirmed
}

// IsExpired returns true if a pending hold outlived its TTL
func (h *ReservationHold) IsExpired(now time.Time) bool {
	return h.Status == HoldStatusHeld && h.ExpiresAt != nil && h.ExpiresAt.Before(now)
}

// IsPending returns true if the booking has not confirmed the hold yet
func (h *ReservationHold) IsPending() bool {
	return h.Status == HoldStatusHeld
}

// SlotRef identifies a slot without loading it
type SlotRef struct {
	Resource ResourceKey
	Date     types.Date
}

// Less orders slot references by (type, id, date); locks are taken in this order
func (r SlotRef) Less(other SlotRef) bool {
	if r.Resource.Type != other.Resource.Type {
		return r.Resource.Type < other.Resource.Type
	}
	if r.Resource.ID != other.Resource.ID {
		return r.Resource.ID < other.Resource.ID
	}
	return r.Date.Before(other.Date)
}

// Ref returns the slot the hold belongs to
func (h *ReservationHold) Ref() SlotRef {
	return SlotRef{Resource: h.Resource, Date: h.Date}
}
