package release_capacity

import (
	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

// ReleaseRequest HTTP request model
type ReleaseRequest struct {
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	Date         string `json:"date"`
	Quantity     int    `json:"quantity"`
}

// WarningResponse освобождено меньше, чем запрошено
type WarningResponse struct {
	Message     string `json:"message"`
	Requested   int    `json:"requested"`
	Released    int    `json:"released"`
	Discrepancy int    `json:"discrepancy"`
}

// ReleaseResponse HTTP response model
type ReleaseResponse struct {
	Slot         *handlers.SlotResponse `json:"slot,omitempty"`
	Requested    int                    `json:"requested"`
	Released     int                    `json:"released"`
	TrimmedHolds int                    `json:"trimmedHolds"`
	Warning      *WarningResponse       `json:"warning,omitempty"`
}

// FromServiceResponse конвертирует результат сервиса в HTTP response
func FromServiceResponse(res *reservations.ReleaseResult) *ReleaseResponse {
	resp := &ReleaseResponse{
		Slot:         handlers.FromSlot(res.Slot),
		Requested:    res.Requested,
		Released:     res.Released,
		TrimmedHolds: res.TrimmedHolds,
	}
	if res.Warning != nil {
		resp.Warning = &WarningResponse{
			Message:     "запрошено больше, чем было зарезервировано",
			Requested:   res.Warning.Requested,
			Released:    res.Warning.Released,
			Discrepancy: res.Warning.Discrepancy(),
		}
	}
	return resp
}
