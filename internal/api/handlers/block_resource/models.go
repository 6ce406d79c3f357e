package block_resource

import "github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"

// BlockRequest HTTP request model
type BlockRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

// BlockResponse HTTP response model
type BlockResponse struct {
	ResourceType string                   `json:"resourceType"`
	ResourceID   int64                    `json:"resourceId"`
	BlockedDays  int                      `json:"blockedDays"`
	Slots        []*handlers.SlotResponse `json:"slots"`
}
