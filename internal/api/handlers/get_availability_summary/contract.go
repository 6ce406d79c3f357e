package get_availability_summary

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type AvailabilityService interface {
	Summary(ctx context.Context, start, end types.Date, resourceType *domain.ResourceType) (*domain.AvailabilitySummary, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
