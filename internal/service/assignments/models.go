package assignments

import (
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Config параметры детектора конфликтов
type Config struct {
	MaxRangeDays int
}

// CreateRequest запрос на создание эксклюзивного назначения
type CreateRequest struct {
	Resource  domain.ResourceKey
	StartDate types.Date
	EndDate   types.Date
	BookingID *int64
	Notes     *string
}

// RescheduleRequest перенос назначения на новый диапазон
type RescheduleRequest struct {
	StartDate types.Date
	EndDate   types.Date
}
