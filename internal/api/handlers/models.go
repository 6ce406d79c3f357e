package handlers

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// SlotResponse слот емкости в ответах API
type SlotResponse struct {
	ResourceType      string  `json:"resourceType"`
	ResourceID        int64   `json:"resourceId"`
	Date              string  `json:"date"`
	TotalCapacity     int     `json:"totalCapacity"`
	ReservedCapacity  int     `json:"reservedCapacity"`
	AvailableCapacity int     `json:"availableCapacity"`
	IsBlocked         bool    `json:"isBlocked"`
	BlockReason       *string `json:"blockReason,omitempty"`
	HolderBookingID   *int64  `json:"holderBookingId,omitempty"`
	OccupancyRate     float64 `json:"occupancyRate"`
	Version           int64   `json:"version"`
}

// FromSlot конвертирует слот в HTTP модель
func FromSlot(s *domain.CapacitySlot) *SlotResponse {
	if s == nil {
		return nil
	}
	return &SlotResponse{
		ResourceType:      string(s.Resource.Type),
		ResourceID:        s.Resource.ID,
		Date:              s.Date.String(),
		TotalCapacity:     s.TotalCapacity,
		ReservedCapacity:  s.ReservedCapacity,
		AvailableCapacity: s.AvailableCapacity(),
		IsBlocked:         s.IsBlocked,
		BlockReason:       s.BlockReason,
		HolderBookingID:   s.HolderBookingID,
		OccupancyRate:     s.OccupancyRate(),
		Version:           s.Version,
	}
}

// FromSlots конвертирует список слотов
func FromSlots(slots []*domain.CapacitySlot) []*SlotResponse {
	result := make([]*SlotResponse, 0, len(slots))
	for _, s := range slots {
		result = append(result, FromSlot(s))
	}
	return result
}

// AssignmentResponse эксклюзивное назначение в ответах API
type AssignmentResponse struct {
	ID                 string  `json:"id"`
	ResourceType       string  `json:"resourceType"`
	ResourceID         int64   `json:"resourceId"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	Status             string  `json:"status"`
	BookingID          *int64  `json:"bookingId,omitempty"`
	Notes              *string `json:"notes,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

// FromAssignment конвертирует назначение в HTTP модель
func FromAssignment(a *domain.ExclusiveAssignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:                 a.ID.String(),
		ResourceType:       string(a.Resource.Type),
		ResourceID:         a.Resource.ID,
		StartDate:          a.StartDate.String(),
		EndDate:            a.EndDate.String(),
		Status:             string(a.Status),
		BookingID:          a.BookingID,
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          a.UpdatedAt.Format(time.RFC3339),
	}
}

// FromAssignments конвертирует список назначений
func FromAssignments(list []*domain.ExclusiveAssignment) []*AssignmentResponse {
	result := make([]*AssignmentResponse, 0, len(list))
	for _, a := range list {
		result = append(result, FromAssignment(a))
	}
	return result
}

// ReleasedHoldResponse освобождённая по холду емкость
type ReleasedHoldResponse struct {
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	Date         string `json:"date"`
	Quantity     int    `json:"quantity"`
}

// Logger интерфейс для логирования, общий для всех handlers
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// LogServiceError пишет ошибку сервиса: бизнес-ошибки в WARN, остальное в ERROR
func LogServiceError(logger Logger, op string, status int, err error) {
	if status >= 500 {
		logger.Error("%s - failed: status=%d, error=%v", op, status, err)
		return
	}
	logger.Warn("%s - rejected: status=%d, error=%v", op, status, err)
}
