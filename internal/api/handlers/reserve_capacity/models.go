package reserve_capacity

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

// ReserveRequest HTTP request model
type ReserveRequest struct {
	ResourceType    string `json:"resourceType"`
	ResourceID      int64  `json:"resourceId"`
	Date            string `json:"date"` // "2026-06-10"
	Quantity        int    `json:"quantity"`
	BookingID       int64  `json:"bookingId"`
	DefaultCapacity *int   `json:"defaultCapacity,omitempty"` // емкость нового слота, например число мест в автобусе
}

// ReserveResponse HTTP response model
type ReserveResponse struct {
	Slot          *handlers.SlotResponse `json:"slot"`
	BookingID     int64                  `json:"bookingId"`
	Quantity      int                    `json:"quantity"`
	HoldStatus    string                 `json:"holdStatus"`
	HoldExpiresAt *string                `json:"holdExpiresAt,omitempty"`
	Idempotent    bool                   `json:"idempotent"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *ReserveRequest) ToServiceRequest() (reservations.ReserveRequest, error) {
	resourceType, err := domain.ParseResourceType(r.ResourceType)
	if err != nil {
		return reservations.ReserveRequest{}, err
	}
	date, err := handlers.ParseDate("date", r.Date)
	if err != nil {
		return reservations.ReserveRequest{}, err
	}

	return reservations.ReserveRequest{
		Resource:        domain.ResourceKey{Type: resourceType, ID: r.ResourceID},
		Date:            date,
		Quantity:        r.Quantity,
		BookingID:       r.BookingID,
		DefaultCapacity: r.DefaultCapacity,
	}, nil
}

// FromServiceResponse конвертирует результат сервиса в HTTP response
func FromServiceResponse(res *reservations.ReserveResult) *ReserveResponse {
	resp := &ReserveResponse{
		Slot:       handlers.FromSlot(res.Slot),
		BookingID:  res.Hold.BookingID,
		Quantity:   res.Hold.Quantity,
		HoldStatus: string(res.Hold.Status),
		Idempotent: res.Idempotent,
	}
	if res.Hold.ExpiresAt != nil {
		expiresAt := res.Hold.ExpiresAt.Format(time.RFC3339)
		resp.HoldExpiresAt = &expiresAt
	}
	return resp
}
