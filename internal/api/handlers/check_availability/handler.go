package check_availability

import (
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const msgInvalidRequiredCapacity = "requiredCapacity должен быть положительным целым числом"

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability?resourceType=&date=&requiredCapacity=
// requiredCapacity необязателен, по умолчанию 1.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	resourceType, err := domain.ParseResourceType(query.Get("resourceType"))
	if err != nil {
		h.logger.Warn("GET /availability - Invalid resource type: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	date, err := handlers.DateFromQuery(r, "date")
	if err != nil {
		h.logger.Warn("GET /availability - Invalid date: %v", err)
		handlers.RespondBadRequest(w, err.Error())
		return
	}

	required := 1
	if raw := query.Get("requiredCapacity"); raw != "" {
		required, err = strconv.Atoi(raw)
		if err != nil || required <= 0 {
			h.logger.Warn("GET /availability - Invalid requiredCapacity: %s", raw)
			handlers.RespondBadRequest(w, msgInvalidRequiredCapacity)
			return
		}
	}

	result, err := h.service.CheckAvailability(r.Context(), resourceType, date, required)
	if err != nil {
		status := handlers.RespondServiceError(w, err)
		handlers.LogServiceError(h.logger, "GET /availability", status, err)
		return
	}

	h.logger.Info("GET /availability - type=%s, date=%s, required=%d, candidates=%d",
		resourceType, date, required, len(result.Candidates))
	handlers.RespondJSON(w, http.StatusOK, FromServiceResponse(result))
}
