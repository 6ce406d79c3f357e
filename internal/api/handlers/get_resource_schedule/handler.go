package get_resource_schedule

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

// ScheduleResponse HTTP response model
type ScheduleResponse struct {
	ResourceType string                   `json:"resourceType"`
	ResourceID   int64                    `json:"resourceId"`
	StartDate    string                   `json:"startDate"`
	EndDate      string                   `json:"endDate"`
	Slots        []*handlers.SlotResponse `json:"slots"`
}

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceType}/{resourceId}/schedule?startDate=&endDate=
// Даты без слотов в ответ не попадают.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key, err := handlers.ResourceKeyFromPath(r)
	if err != nil {
		h.logger.Warn("GET /resources/{type}/{id}/schedule - Invalid resource: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	start, end, err := handlers.DateRangeFromQuery(r)
	if err != nil {
		h.logger.Warn("GET /resources/{type}/{id}/schedule - Invalid date range: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	slots, err := h.service.Schedule(r.Context(), key, start, end)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "GET /resources/{type}/{id}/schedule", status, err)
		return
	}

	h.logger.Info("GET /resources/{type}/{id}/schedule - resource=%s, slots=%d", key, len(slots))
	handlers.RespondJSON(w, http.StatusOK, ScheduleResponse{
		ResourceType: string(key.Type),
		ResourceID:   key.ID,
		StartDate:    start.String(),
		EndDate:      end.String(),
		Slots:        handlers.FromSlots(slots),
	})
}
