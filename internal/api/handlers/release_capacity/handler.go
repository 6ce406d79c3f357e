package release_capacity

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const msgInvalidRequestBody = "некорректное тело запроса"

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/release
// Освобождение сверх резерва не ошибка: 200 с полем warning.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/release - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resourceType, err := domain.ParseResourceType(req.ResourceType)
	if err != nil {
		h.logger.Warn("POST /reservations/release - Invalid resource type: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}
	date, err := handlers.ParseDate("date", req.Date)
	if err != nil {
		h.logger.Warn("POST /reservations/release - Invalid date: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	key := domain.ResourceKey{Type: resourceType, ID: req.ResourceID}
	result, err := h.service.Release(r.Context(), key, date, req.Quantity)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /reservations/release", status, err)
		return
	}

	h.logger.Info("POST /reservations/release - Released: resource=%s, date=%s, requested=%d, released=%d",
		key, date, result.Requested, result.Released)
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}
