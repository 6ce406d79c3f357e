package reserve_capacity

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

type ReservationService interface {
	Reserve(ctx context.Context, req reservations.ReserveRequest) (*reservations.ReserveResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
