package availability

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// SlotRepository интерфейс чтения слотов емкости
type SlotRepository interface {
	ListAvailable(ctx context.Context, resourceType domain.ResourceType, date types.Date, required int) ([]*domain.CapacitySlot, error)
	ListByResource(ctx context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error)
	Summarize(ctx context.Context, start, end types.Date, resourceType *domain.ResourceType) (map[domain.ResourceType]domain.CapacityTotals, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
