package sweep_holds

import (
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
)

// SweepResponse HTTP response model
type SweepResponse struct {
	ExpiredBookings int     `json:"expiredBookings"`
	BookingIDs      []int64 `json:"bookingIds"`
}

type Handler struct {
	service ExpiryService
	clock   TimeProvider
	logger  Logger
}

func NewHandler(service ExpiryService, clock TimeProvider, logger Logger) *Handler {
	return &Handler{
		service: service,
		clock:   clock,
		logger:  logger,
	}
}

// Handle POST /api/v1/holds/sweep
// Ручной запуск той же очистки, что выполняет фоновый воркер.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Sweep(r.Context(), h.clock.Now())
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "POST /holds/sweep", status, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	h.logger.Info("POST /holds/sweep - Expired bookings: %d", len(ids))
	handlers.RespondJSON(w, http.StatusOK, SweepResponse{ExpiredBookings: len(ids), BookingIDs: ids})
}
