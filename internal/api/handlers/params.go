package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// ResourceKeyFromPath читает {resourceType}/{resourceId} из URL
func ResourceKeyFromPath(r *http.Request) (domain.ResourceKey, error) {
	vars := mux.Vars(r)

	resourceType, err := domain.ParseResourceType(vars["resourceType"])
	if err != nil {
		return domain.ResourceKey{}, err
	}

	id, err := strconv.ParseInt(vars["resourceId"], 10, 64)
	if err != nil || id <= 0 {
		return domain.ResourceKey{}, fmt.Errorf("%w: invalid resource id %q", domain.ErrInvalidInput, vars["resourceId"])
	}

	return domain.ResourceKey{Type: resourceType, ID: id}, nil
}

// Int64FromPath читает положительный целочисленный параметр пути
func Int64FromPath(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// UUIDFromPath читает UUID параметр пути
func UUIDFromPath(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// DateFromQuery читает обязательную дату YYYY-MM-DD из query
func DateFromQuery(r *http.Request, name string) (types.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return types.Date{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, name)
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, fmt.Errorf("%w: %s: expected YYYY-MM-DD, got %q", domain.ErrInvalidInput, name, raw)
	}
	return d, nil
}

// DateRangeFromQuery читает startDate и endDate
func DateRangeFromQuery(r *http.Request) (types.Date, types.Date, error) {
	start, err := DateFromQuery(r, "startDate")
	if err != nil {
		return types.Date{}, types.Date{}, err
	}
	end, err := DateFromQuery(r, "endDate")
	if err != nil {
		return types.Date{}, types.Date{}, err
	}
	return start, end, nil
}

// ParseDate разбирает дату из тела запроса
func ParseDate(field, raw string) (types.Date, error) {
	d, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, fmt.Errorf("%w: %s: expected YYYY-MM-DD, got %q", domain.ErrInvalidInput, field, raw)
	}
	return d, nil
}
