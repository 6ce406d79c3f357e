package expiry

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/infra/lease"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

// HoldRepository интерфейс поиска истёкших холдов
type HoldRepository interface {
	ListExpiredBookingIDs(ctx context.Context, now time.Time, limit int) ([]int64, error)
}

// Releaser снимает одно истёкшее бронирование в отдельной транзакции
type Releaser interface {
	ReleaseExpired(ctx context.Context, bookingID int64, now time.Time) (*reservations.BookingReleaseResult, error)
}

// Lease аренда на один тик для нескольких экземпляров сервиса
type Lease interface {
	TryAcquire(ctx context.Context) (lease.Token, bool, error)
	Release(ctx context.Context, token lease.Token) error
}

type Metrics interface {
	IncHoldsExpired(result string)
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
