package release_booking

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

type ReservationService interface {
	ReleaseForBooking(ctx context.Context, bookingID int64) (*reservations.BookingReleaseResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
