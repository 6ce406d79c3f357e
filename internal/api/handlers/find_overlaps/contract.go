package find_overlaps

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type AssignmentService interface {
	FindOverlaps(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) ([]*domain.ExclusiveAssignment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
