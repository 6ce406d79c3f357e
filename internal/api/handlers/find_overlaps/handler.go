package find_overlaps

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidExcludeID = "некорректный excludeId"

// OverlapsResponse HTTP response model
type OverlapsResponse struct {
	HasConflict bool                           `json:"hasConflict"`
	Assignments []*handlers.AssignmentResponse `json:"assignments"`
}

type Handler struct {
	service AssignmentService
	logger  Logger
}

func NewHandler(service AssignmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/resources/{resourceType}/{resourceId}/assignments?startDate=&endDate=&excludeId=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key, err := handlers.ResourceKeyFromPath(r)
	if err != nil {
		h.logger.Warn("GET /resources/{type}/{id}/assignments - Invalid resource: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	start, end, err := handlers.DateRangeFromQuery(r)
	if err != nil {
		h.logger.Warn("GET /resources/{type}/{id}/assignments - Invalid date range: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	var excludeID *uuid.UUID
	if raw := r.URL.Query().Get("excludeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.logger.Warn("GET /resources/{type}/{id}/assignments - Invalid excludeId: %s", raw)
			handlers.RespondBadRequest(w, msgInvalidExcludeID)
			return
		}
		excludeID = &id
	}

	overlaps, err := h.service.FindOverlaps(r.Context(), key, start, end, excludeID)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "GET /resources/{type}/{id}/assignments", status, err)
		return
	}

	h.logger.Info("GET /resources/{type}/{id}/assignments - resource=%s, overlaps=%d", key, len(overlaps))
	handlers.RespondJSON(w, http.StatusOK, OverlapsResponse{
		HasConflict: len(overlaps) > 0,
		Assignments: handlers.FromAssignments(overlaps),
	})
}
