package check_availability

import "github.com/m04kA/SMC-AvailabilityService/internal/domain"

// CandidateResponse ресурс со свободной емкостью
type CandidateResponse struct {
	ResourceID        int64 `json:"resourceId"`
	AvailableCapacity int   `json:"availableCapacity"`
}

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	ResourceType     string               `json:"resourceType"`
	Date             string               `json:"date"`
	RequiredCapacity int                  `json:"requiredCapacity"`
	HasAvailability  bool                 `json:"hasAvailability"`
	Candidates       []*CandidateResponse `json:"candidates"`
}

// FromServiceResponse конвертирует результат сервиса в HTTP response
func FromServiceResponse(res *domain.AvailabilityResult) *AvailabilityResponse {
	candidates := make([]*CandidateResponse, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		candidates = append(candidates, &CandidateResponse{
			ResourceID:        c.Resource.ID,
			AvailableCapacity: c.AvailableCapacity,
		})
	}
	return &AvailabilityResponse{
		ResourceType:     string(res.ResourceType),
		Date:             res.Date.String(),
		RequiredCapacity: res.RequiredCapacity,
		HasAvailability:  res.HasAvailability,
		Candidates:       candidates,
	}
}
