package cancel_assignment

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const (
	msgInvalidAssignmentID = "некорректный ID назначения"
	msgInvalidRequestBody  = "некорректное тело запроса"
)

// CancelRequest HTTP request model, тело необязательно
type CancelRequest struct {
	Reason *string `json:"reason,omitempty"`
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

// Handle PATCH /api/v1/assignments/{assignmentId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.UUIDFromPath(r, "assignmentId")
	if err != nil {
		h.logger.Warn("PATCH /assignments/{id}/cancel - Invalid assignment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAssignmentID)
		return
	}

	var req CancelRequest
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			h.logger.Warn("PATCH /assignments/{id}/cancel - Invalid request body: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
	}

	cancelled, err := h.service.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "PATCH /assignments/{id}/cancel", status, err)
		return
	}

	h.logger.Info("PATCH /assignments/{id}/cancel - Cancelled: id=%s", id)
	handlers.RespondJSON(w, http.StatusOK, handlers.FromAssignment(cancelled))
}
