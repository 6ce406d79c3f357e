package release_capacity

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type ReservationService interface {
	Release(ctx context.Context, key domain.ResourceKey, date types.Date, quantity int) (*reservations.ReleaseResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
