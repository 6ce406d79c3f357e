package unblock_resource

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

// UnblockResponse HTTP response model
type UnblockResponse struct {
	ResourceType string                   `json:"resourceType"`
	ResourceID   int64                    `json:"resourceId"`
	Slots        []*handlers.SlotResponse `json:"slots"`
}

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

// Handle DELETE /api/v1/resources/{resourceType}/{resourceId}/blocks?startDate=&endDate=
// Повторное снятие блокировки не ошибка.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	key, err := handlers.ResourceKeyFromPath(r)
	if err != nil {
		h.logger.Warn("DELETE /resources/{type}/{id}/blocks - Invalid resource: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	start, end, err := handlers.DateRangeFromQuery(r)
	if err != nil {
		h.logger.Warn("DELETE /resources/{type}/{id}/blocks - Invalid date range: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	slots, err := h.service.Unblock(r.Context(), key, start, end)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "DELETE /resources/{type}/{id}/blocks", status, err)
		return
	}

	h.logger.Info("DELETE /resources/{type}/{id}/blocks - Unblocked: resource=%s, %s..%s", key, start, end)
	handlers.RespondJSON(w, http.StatusOK, UnblockResponse{
		ResourceType: string(key.Type),
		ResourceID:   key.ID,
		Slots:        handlers.FromSlots(slots),
	})
}
