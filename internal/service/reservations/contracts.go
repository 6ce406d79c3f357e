package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// SlotRepository интерфейс хранилища слотов емкости
type SlotRepository interface {
	GetOrCreate(ctx context.Context, key domain.ResourceKey, date types.Date, defaultCapacity int) (*domain.CapacitySlot, error)
	Get(ctx context.Context, key domain.ResourceKey, date types.Date) (*domain.CapacitySlot, error)
	Update(ctx context.Context, slot *domain.CapacitySlot) error
}

// HoldRepository интерфейс хранилища холдов
type HoldRepository interface {
	Get(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) (*domain.ReservationHold, error)
	Upsert(ctx context.Context, hold *domain.ReservationHold) error
	ListByBooking(ctx context.Context, bookingID int64) ([]*domain.ReservationHold, error)
	ListBySlot(ctx context.Context, key domain.ResourceKey, date types.Date) ([]*domain.ReservationHold, error)
	Confirm(ctx context.Context, bookingID int64) (int64, error)
	Delete(ctx context.Context, key domain.ResourceKey, date types.Date, bookingID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счётчики резервирования
type Metrics interface {
	IncReservation(resourceType, result string)
	AddReleased(reason string, units int)
	IncReleaseWarning(resourceType string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}
