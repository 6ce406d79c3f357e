package update_assignment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/assignments"
)

var errAmbiguousUpdate = errors.New("either startDate/endDate or status must be set, not both")

// UpdateAssignmentRequest HTTP request model.
// Либо перенос (startDate + endDate), либо смена статуса (active, completed).
type UpdateAssignmentRequest struct {
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	Status    *string `json:"status,omitempty"`
}

func (r *UpdateAssignmentRequest) isReschedule() bool {
	return r.StartDate != nil || r.EndDate != nil
}

// Validate проверяет, что запрос однозначен
func (r *UpdateAssignmentRequest) Validate() error {
	if r.isReschedule() == (r.Status != nil) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, errAmbiguousUpdate)
	}
	if r.isReschedule() && (r.StartDate == nil || r.EndDate == nil) {
		return fmt.Errorf("%w: startDate and endDate are both required", domain.ErrInvalidInput)
	}
	return nil
}

// ToRescheduleRequest конвертирует даты в запрос сервиса
func (r *UpdateAssignmentRequest) ToRescheduleRequest() (assignments.RescheduleRequest, error) {
	start, err := handlers.ParseDate("startDate", *r.StartDate)
	if err != nil {
		return assignments.RescheduleRequest{}, err
	}
	end, err := handlers.ParseDate("endDate", *r.EndDate)
	if err != nil {
		return assignments.RescheduleRequest{}, err
	}
	return assignments.RescheduleRequest{StartDate: start, EndDate: end}, nil
}
