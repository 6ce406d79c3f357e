package create_assignment

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/assignments"
)

type AssignmentService interface {
	Create(ctx context.Context, req assignments.CreateRequest) (*domain.ExclusiveAssignment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
