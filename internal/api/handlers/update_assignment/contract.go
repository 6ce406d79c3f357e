package update_assignment

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/assignments"
)

type AssignmentService interface {
	Reschedule(ctx context.Context, id uuid.UUID, req assignments.RescheduleRequest) (*domain.ExclusiveAssignment, error)
	Start(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error)
	Complete(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
