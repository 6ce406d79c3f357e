package confirm_booking

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

const msgInvalidBookingID = "некорректный ID бронирования"

// ConfirmResponse HTTP response model
type ConfirmResponse struct {
	BookingID int64 `json:"bookingId"`
	Confirmed int   `json:"confirmedHolds"`
}

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

// Handle POST /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.Int64FromPath(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/confirm - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	confirmed, err := h.service.ConfirmBooking(r.Context(), bookingID)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /bookings/{id}/confirm", status, err)
		return
	}

	h.logger.Info("POST /bookings/{id}/confirm - Confirmed: booking_id=%d, holds=%d", bookingID, confirmed)
	handlers.RespondJSON(w, http.StatusOK, ConfirmResponse{BookingID: bookingID, Confirmed: confirmed})
}
