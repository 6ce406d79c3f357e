package reservations

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Config параметры координатора резервирования
type Config struct {
	HoldTTL          time.Duration
	DefaultCapacity  map[domain.ResourceType]int
	FallbackCapacity int
}

// ReserveRequest запрос на резервирование емкости слота под бронирование
type ReserveRequest struct {
	Resource  domain.ResourceKey
	Date      types.Date
	Quantity  int
	BookingID int64
	// DefaultCapacity емкость нового слота; nil - значение из конфига для типа ресурса
	DefaultCapacity *int
}

// ReserveResult результат резервирования
type ReserveResult struct {
	Slot       *domain.CapacitySlot
	Hold       *domain.ReservationHold
	Idempotent bool // повторный вызов с тем же количеством, ничего не изменилось
}

// ReleaseResult результат освобождения емкости
type ReleaseResult struct {
	Slot      *domain.CapacitySlot // nil, если слота не было
	Requested int
	Released  int
	// Warning заполняется, если попросили освободить больше, чем было зарезервировано
	Warning      *domain.ReleaseExceedsReservedError
	TrimmedHolds int
}

// ReleasedHold емкость, возвращённая по одному холду
type ReleasedHold struct {
	Resource domain.ResourceKey
	Date     types.Date
	Quantity int
}

// BookingReleaseResult результат освобождения всех холдов бронирования
type BookingReleaseResult struct {
	BookingID int64
	Released  []ReleasedHold
}

// Units суммарное количество освобождённых единиц
func (r *BookingReleaseResult) Units() int {
	total := 0
	for _, h := range r.Released {
		total += h.Quantity
	}
	return total
}
