package reserve_capacity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type fakeService struct {
	got    reservations.ReserveRequest
	called bool
	result *reservations.ReserveResult
	err    error
}

func (f *fakeService) Reserve(_ context.Context, req reservations.ReserveRequest) (*reservations.ReserveResult, error) {
	f.called = true
	f.got = req
	return f.result, f.err
}

func okResult(idempotent bool) *reservations.ReserveResult {
	key := domain.ResourceKey{Type: domain.ResourceVehicle, ID: 3}
	date := types.NewDate(2026, 6, 10)
	expires := time.Date(2026, 6, 1, 12, 15, 0, 0, time.UTC)
	return &reservations.ReserveResult{
		Slot: &domain.CapacitySlot{Resource: key, Date: date, TotalCapacity: 8, ReservedCapacity: 2},
		Hold: &domain.ReservationHold{
			Resource: key, Date: date, BookingID: 100, Quantity: 2,
			Status: domain.HoldStatusHeld, ExpiresAt: &expires,
		},
		Idempotent: idempotent,
	}
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body)))
	return rec
}

const validBody = `{"resourceType":"vehicle","resourceId":3,"date":"2026-06-10","quantity":2,"bookingId":100,"defaultCapacity":8}`

func TestHandle_Created(t *testing.T) {
	svc := &fakeService{result: okResult(false)}
	rec := post(NewHandler(svc, logger.NewNop()), validBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.ResourceKey{Type: domain.ResourceVehicle, ID: 3}, svc.got.Resource)
	assert.Equal(t, types.NewDate(2026, 6, 10), svc.got.Date)
	require.NotNil(t, svc.got.DefaultCapacity)
	assert.Equal(t, 8, *svc.got.DefaultCapacity)

	var resp ReserveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Slot.AvailableCapacity)
	assert.Equal(t, "held", resp.HoldStatus)
	require.NotNil(t, resp.HoldExpiresAt)
	assert.Equal(t, "2026-06-01T12:15:00Z", *resp.HoldExpiresAt)
}

func TestHandle_IdempotentRepeatIsOK(t *testing.T) {
	rec := post(NewHandler(&fakeService{result: okResult(true)}, logger.NewNop()), validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_InsufficientCapacity(t *testing.T) {
	svc := &fakeService{err: &domain.InsufficientCapacityError{
		Resource:  domain.ResourceKey{Type: domain.ResourceVehicle, ID: 3},
		Date:      types.NewDate(2026, 6, 10),
		Requested: 2,
		Available: 1,
	}}
	rec := post(NewHandler(svc, logger.NewNop()), validBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":1`)
}

func TestHandle_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"resourceType":"vehicle","seats":3}`},
		{"unknown type", `{"resourceType":"boat","resourceId":3,"date":"2026-06-10","quantity":1,"bookingId":1}`},
		{"bad date", `{"resourceType":"vehicle","resourceId":3,"date":"10.06.2026","quantity":1,"bookingId":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := post(NewHandler(svc, logger.NewNop()), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.called)
		})
	}
}
