package get_assignment

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidAssignmentID = "некорректный ID назначения"

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

// Handle GET /api/v1/assignments/{assignmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.UUIDFromPath(r, "assignmentId")
	if err != nil {
		h.logger.Warn("GET /assignments/{id} - Invalid assignment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAssignmentID)
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "GET /assignments/{id}", status, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, handlers.FromAssignment(a))
}
