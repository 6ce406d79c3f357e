package get_resource_schedule

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type AvailabilityService interface {
	Schedule(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
