package create_assignment

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidRequestBody = "некорректное тело запроса"

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

// Handle POST /api/v1/assignments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /assignments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /assignments - Invalid request: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), serviceReq)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /assignments", status, err)
		return
	}

	h.logger.Info("POST /assignments - Created: id=%s, resource=%s, %s", created.ID, created.Resource, created.Range())
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromAssignment(created))
}
