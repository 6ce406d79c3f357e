package cancel_assignment

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

type AssignmentService interface {
	Cancel(ctx context.Context, id uuid.UUID, reason *string) (*domain.ExclusiveAssignment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
