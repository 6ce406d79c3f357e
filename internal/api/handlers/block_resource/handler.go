package block_resource

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	service BlockService
	logger  Logger
}

func NewHandler(service BlockService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/resources/{resourceType}/{resourceId}/blocks
// Существующие резервы сохраняются, новые резервы на эти даты отклоняются.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key, err := handlers.ResourceKeyFromPath(r)
	if err != nil {
		h.logger.Warn("POST /resources/{type}/{id}/blocks - Invalid resource: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	var req BlockRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /resources/{type}/{id}/blocks - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	start, err := handlers.ParseDate("startDate", req.StartDate)
	if err != nil {
		handlers.RespondBadRequest(w, err.Error())
		return
	}
	end, err := handlers.ParseDate("endDate", req.EndDate)
	if err != nil {
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	slots, err := h.service.Block(r.Context(), key, start, end, req.Reason)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /resources/{type}/{id}/blocks", status, err)
		return
	}

	h.logger.Info("POST /resources/{type}/{id}/blocks - Blocked: resource=%s, %s..%s", key, start, end)
	handlers.RespondJSON(w, http.StatusOK, BlockResponse{
		ResourceType: string(key.Type),
		ResourceID:   key.ID,
		BlockedDays:  len(slots),
		Slots:        handlers.FromSlots(slots),
	})
}
