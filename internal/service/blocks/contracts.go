package blocks

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// SlotRepository интерфейс хранилища слотов емкости
type SlotRepository interface {
	UpsertBlocked(ctx context.Context, key domain.ResourceKey, dates []types.Date, defaultCapacity int, reason *string) ([]*domain.CapacitySlot, error)
	ClearBlocked(ctx context.Context, key domain.ResourceKey, start, end types.Date) (int64, error)
	ListByResource(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
