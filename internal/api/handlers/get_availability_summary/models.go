package get_availability_summary

import "github.com/m04kA/SMC-AvailabilityService/internal/domain"

// TotalsResponse агрегированные счётчики
type TotalsResponse struct {
	TotalSlots        int `json:"totalSlots"`
	BlockedSlots      int `json:"blockedSlots"`
	TotalCapacity     int `json:"totalCapacity"`
	ReservedCapacity  int `json:"reservedCapacity"`
	AvailableCapacity int `json:"availableCapacity"`
}

// SummaryResponse HTTP response model
type SummaryResponse struct {
	StartDate    string                     `json:"startDate"`
	EndDate      string                     `json:"endDate"`
	ResourceType *string                    `json:"resourceType,omitempty"`
	Totals       TotalsResponse             `json:"totals"`
	ByType       map[string]TotalsResponse `json:"byType"`
}

func fromTotals(t domain.CapacityTotals) TotalsResponse {
	return TotalsResponse{
		TotalSlots:        t.TotalSlots,
		BlockedSlots:      t.BlockedSlots,
		TotalCapacity:     t.TotalCapacity,
		ReservedCapacity:  t.ReservedCapacity,
		AvailableCapacity: t.AvailableCapacity,
	}
}

// FromServiceResponse конвертирует сводку в HTTP response
func FromServiceResponse(s *domain.AvailabilitySummary) *SummaryResponse {
	resp := &SummaryResponse{
		StartDate: s.StartDate.String(),
		EndDate:   s.EndDate.String(),
		Totals:    fromTotals(s.Totals),
		ByType:    make(map[string]TotalsResponse, len(s.ByType)),
	}
	if s.ResourceType != nil {
		t := string(*s.ResourceType)
		resp.ResourceType = &t
	}
	for t, totals := range s.ByType {
		resp.ByType[string(t)] = fromTotals(totals)
	}
	return resp
}
