package get_availability_summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

type fakeService struct {
	resourceType *domain.ResourceType
	called       bool
	err          error
}

func (f *fakeService) Summary(_ context.Context, start, end types.Date, resourceType *domain.ResourceType) (*domain.AvailabilitySummary, error) {
	f.called = true
	f.resourceType = resourceType
	if f.err != nil {
		return nil, f.err
	}
	vehicles := domain.CapacityTotals{TotalSlots: 2, BlockedSlots: 1, TotalCapacity: 16, ReservedCapacity: 4, AvailableCapacity: 4}
	guides := domain.CapacityTotals{TotalSlots: 1, TotalCapacity: 1, AvailableCapacity: 1}
	summary := &domain.AvailabilitySummary{
		StartDate:    start,
		EndDate:      end,
		ResourceType: resourceType,
		ByType:       map[domain.ResourceType]domain.CapacityTotals{domain.ResourceVehicle: vehicles},
	}
	if resourceType == nil {
		summary.ByType[domain.ResourceGuide] = guides
	}
	for _, t := range summary.ByType {
		summary.Totals.Add(t)
	}
	return summary, nil
}

func serve(svc *fakeService, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle_AllTypes(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, "/api/v1/availability/summary?startDate=2026-06-01&endDate=2026-06-30")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.resourceType)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-06-01", resp.StartDate)
	assert.Nil(t, resp.ResourceType)
	assert.Equal(t, 3, resp.Totals.TotalSlots)
	assert.Equal(t, 1, resp.Totals.BlockedSlots)
	assert.Equal(t, 17, resp.Totals.TotalCapacity)
	assert.Equal(t, 5, resp.Totals.AvailableCapacity)
	require.Len(t, resp.ByType, 2)
	assert.Equal(t, 4, resp.ByType["vehicle"].ReservedCapacity)
}

func TestHandle_FilteredByType(t *testing.T) {
	svc := &fakeService{}
	rec := serve(svc, "/api/v1/availability/summary?startDate=2026-06-01&endDate=2026-06-30&resourceType=vehicle")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.resourceType)
	assert.Equal(t, domain.ResourceVehicle, *svc.resourceType)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.ResourceType)
	assert.Equal(t, "vehicle", *resp.ResourceType)
	assert.Len(t, resp.ByType, 1)
}

func TestHandle_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing dates", "/api/v1/availability/summary"},
		{"bad end", "/api/v1/availability/summary?startDate=2026-06-01&endDate=june"},
		{"unknown type", "/api/v1/availability/summary?startDate=2026-06-01&endDate=2026-06-30&resourceType=boat"},
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

func TestHandle_StorageDown(t *testing.T) {
	rec := serve(&fakeService{err: domain.ErrTemporarilyUnavailable}, "/api/v1/availability/summary?startDate=2026-06-01&endDate=2026-06-30")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
