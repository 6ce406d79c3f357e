package confirm_booking

import "context"

type ReservationService interface {
	ConfirmBooking(ctx context.Context, bookingID int64) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
