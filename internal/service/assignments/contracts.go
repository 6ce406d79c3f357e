package assignments

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// AssignmentRepository интерфейс хранилища эксклюзивных назначений
type AssignmentRepository interface {
	LockResource(ctx context.Context, key domain.ResourceKey) error
	FindOverlaps(ctx context.Context, key domain.ResourceKey, start, end types.Date, excludeID *uuid.UUID) ([]*domain.ExclusiveAssignment, error)
	Create(ctx context.Context, a *domain.ExclusiveAssignment) (*domain.ExclusiveAssignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExclusiveAssignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssignmentStatus, reason *string) error
	UpdateDates(ctx context.Context, id uuid.UUID, start, end types.Date) error
}

// SlotRepository нужен только для проверки блокировок ресурса
type SlotRepository interface {
	ListBlocked(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	IncAssignment(resourceType, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
