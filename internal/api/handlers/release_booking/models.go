package release_booking

import (
	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

// BookingReleaseResponse HTTP response model
type BookingReleaseResponse struct {
	BookingID     int64                           `json:"bookingId"`
	ReleasedUnits int                             `json:"releasedUnits"`
	Released      []*handlers.ReleasedHoldResponse `json:"released"`
}

// FromServiceResponse конвертирует результат сервиса в HTTP response
func FromServiceResponse(res *reservations.BookingReleaseResult) *BookingReleaseResponse {
	released := make([]*handlers.ReleasedHoldResponse, 0, len(res.Released))
	for _, h := range res.Released {
		released = append(released, &handlers.ReleasedHoldResponse{
			ResourceType: string(h.Resource.Type),
			ResourceID:   h.Resource.ID,
			Date:         h.Date.String(),
			Quantity:     h.Quantity,
		})
	}
	return &BookingReleaseResponse{
		BookingID:     res.BookingID,
		ReleasedUnits: res.Units(),
		Released:      released,
	}
}
