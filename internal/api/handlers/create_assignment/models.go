package create_assignment

import (
	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/assignments"
)

// CreateAssignmentRequest HTTP request model
type CreateAssignmentRequest struct {
	ResourceType string  `json:"resourceType"`
	ResourceID   int64   `json:"resourceId"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	BookingID    *int64  `json:"bookingId,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в запрос сервиса
func (r *CreateAssignmentRequest) ToServiceRequest() (assignments.CreateRequest, error) {
	resourceType, err := domain.ParseResourceType(r.ResourceType)
	if err != nil {
		return assignments.CreateRequest{}, err
	}
	start, err := handlers.ParseDate("startDate", r.StartDate)
	if err != nil {
		return assignments.CreateRequest{}, err
	}
	end, err := handlers.ParseDate("endDate", r.EndDate)
	if err != nil {
		return assignments.CreateRequest{}, err
	}

	return assignments.CreateRequest{
		Resource:  domain.ResourceKey{Type: resourceType, ID: r.ResourceID},
		StartDate: start,
		EndDate:   end,
		BookingID: r.BookingID,
		Notes:     r.Notes,
	}, nil
}
