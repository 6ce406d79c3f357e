package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

func TestResourceKeyFromPath(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		want    domain.ResourceKey
		wantErr bool
	}{
		{"ok", map[string]string{"resourceType": "driver", "resourceId": "12"}, domain.ResourceKey{Type: domain.ResourceDriver, ID: 12}, false},
		{"unknown type", map[string]string{"resourceType": "boat", "resourceId": "12"}, domain.ResourceKey{}, true},
		{"zero id", map[string]string{"resourceType": "driver", "resourceId": "0"}, domain.ResourceKey{}, true},
		{"not a number", map[string]string{"resourceType": "driver", "resourceId": "x"}, domain.ResourceKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), tt.vars)
			got, err := ResourceKeyFromPath(r)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRangeFromQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?startDate=2026-06-01&endDate=2026-06-03", nil)
	start, end, err := DateRangeFromQuery(r)
	require.NoError(t, err)
	assert.Equal(t, types.NewDate(2026, 6, 1), start)
	assert.Equal(t, types.NewDate(2026, 6, 3), end)

	_, _, err = DateRangeFromQuery(httptest.NewRequest(http.MethodGet, "/?startDate=2026-06-01", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = DateRangeFromQuery(httptest.NewRequest(http.MethodGet, "/?startDate=01.06.2026&endDate=2026-06-03", nil))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
