package get_availability_summary

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

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

// Handle GET /api/v1/availability/summary?startDate=&endDate=&resourceType=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	start, end, err := handlers.DateRangeFromQuery(r)
	if err != nil {
		h.logger.Warn("GET /availability/summary - Invalid date range: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	var resourceType *domain.ResourceType
	if raw := r.URL.Query().Get("resourceType"); raw != "" {
		t, err := domain.ParseResourceType(raw)
		if err != nil {
			h.logger.Warn("GET /availability/summary - Invalid resource type: %v", err)
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		resourceType = &t
	}

	summary, err := h.service.Summary(r.Context(), start, end, resourceType)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "GET /availability/summary", status, err)
		return
	}

	h.logger.Info("GET /availability/summary - %s..%s, slots=%d", start, end, summary.Totals.TotalSlots)
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(summary))
}
