package release_booking

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidBookingID = "некорректный ID бронирования"

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

// Handle POST /api/v1/bookings/{bookingId}/release
// Вызывается при отмене бронирования: возвращает всю емкость его холдов.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.Int64FromPath(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/release - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	result, err := h.service.ReleaseForBooking(r.Context(), bookingID)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /bookings/{id}/release", status, err)
		return
	}

	h.logger.Info("POST /bookings/{id}/release - Released: booking_id=%d, units=%d", bookingID, result.Units())
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}
