package get_resource_schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type fakeService struct {
	key    domain.ResourceKey
	start  types.Date
	end    types.Date
	slots  []*domain.CapacitySlot
	called bool
	err    error
}

func (f *fakeService) Schedule(_ context.Context, key domain.ResourceKey, start, end types.Date) ([]*domain.CapacitySlot, error) {
	f.called = true
	f.key, f.start, f.end = key, start, end
	return f.slots, f.err
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/resources/{resourceType}/{resourceId}/schedule", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle_ReturnsStoredSlots(t *testing.T) {
	bus := domain.ResourceKey{Type: domain.ResourceVehicle, ID: 11}
	holder := int64(100)
	svc := &fakeService{slots: []*domain.CapacitySlot{
		{Resource: bus, Date: types.NewDate(2026, 6, 10), TotalCapacity: 8, ReservedCapacity: 4, Version: 2},
		{Resource: bus, Date: types.NewDate(2026, 6, 12), TotalCapacity: 8, ReservedCapacity: 8, HolderBookingID: &holder, Version: 5},
	}}
	rec := serve(svc, "/api/v1/resources/vehicle/11/schedule?startDate=2026-06-10&endDate=2026-06-12")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bus, svc.key)
	assert.Equal(t, types.NewDate(2026, 6, 10), svc.start)
	assert.Equal(t, types.NewDate(2026, 6, 12), svc.end)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "vehicle", resp.ResourceType)
	assert.Equal(t, int64(11), resp.ResourceID)
	assert.Equal(t, "2026-06-10", resp.StartDate)
	assert.Equal(t, "2026-06-12", resp.EndDate)
	require.Len(t, resp.Slots, 2, "dates without slots are omitted")
	assert.Equal(t, 4, resp.Slots[0].AvailableCapacity)
	assert.Equal(t, 0, resp.Slots[1].AvailableCapacity)
	require.NotNil(t, resp.Slots[1].HolderBookingID)
	assert.Equal(t, holder, *resp.Slots[1].HolderBookingID)
}

func TestHandle_EmptySchedule(t *testing.T) {
	rec := serve(&fakeService{}, "/api/v1/resources/guide/4/schedule?startDate=2026-06-10&endDate=2026-06-10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slots":[]`)
}

func TestHandle_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"unknown type", "/api/v1/resources/boat/4/schedule?startDate=2026-06-10&endDate=2026-06-11"},
		{"bad id", "/api/v1/resources/guide/x/schedule?startDate=2026-06-10&endDate=2026-06-11"},
		{"missing end", "/api/v1/resources/guide/4/schedule?startDate=2026-06-10"},
		{"bad start", "/api/v1/resources/guide/4/schedule?startDate=10-06-2026&endDate=2026-06-11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(svc, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.called)
		})
	}
}

func TestHandle_RangeRejectedByService(t *testing.T) {
	rec := serve(&fakeService{err: domain.ErrInvalidInput}, "/api/v1/resources/guide/4/schedule?startDate=2026-06-12&endDate=2026-06-10")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
