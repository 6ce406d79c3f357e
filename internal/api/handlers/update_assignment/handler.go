package update_assignment

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const (
	msgInvalidAssignmentID = "некорректный ID назначения"
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgUseCancelEndpoint   = "для отмены используйте PATCH /assignments/{id}/cancel"
)

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

// Handle PATCH /api/v1/assignments/{assignmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.UUIDFromPath(r, "assignmentId")
	if err != nil {
		h.logger.Warn("PATCH /assignments/{id} - Invalid assignment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAssignmentID)
		return
	}

	var req UpdateAssignmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /assignments/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.Warn("PATCH /assignments/{id} - Invalid request: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	var updated *domain.ExclusiveAssignment
	if req.isReschedule() {
		serviceReq, err := req.ToRescheduleRequest()
		if err != nil {
			handlers.RespondBadRequest(w, err.Error())
			return
		}
		updated, err = h.service.Reschedule(r.Context(), id, serviceReq)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
	} else {
		updated, err = h.changeStatus(r, id, *req.Status)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
	}

	h.logger.Info("PATCH /assignments/{id} - Updated: id=%s, status=%s, %s", id, updated.Status, updated.Range())
	handlers.RespondJSON(w, http.StatusOK, handlers.FromAssignment(updated))
}

func (h *Handler) changeStatus(r *http.Request, id uuid.UUID, raw string) (*domain.ExclusiveAssignment, error) {
	status, err := domain.ParseAssignmentStatus(raw)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.AssignmentActive:
		return h.service.Start(r.Context(), id)
	case domain.AssignmentCompleted:
		return h.service.Complete(r.Context(), id)
	case domain.AssignmentCancelled:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgUseCancelEndpoint)
	default:
		return nil, fmt.Errorf("%w: status %q cannot be set directly", domain.ErrInvalidInput, status)
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := handlers.RespondServiceError(w, err)
	handlers.LogServiceError(h.logger, "PATCH /assignments/{id}", status, err)
}
