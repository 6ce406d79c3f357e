package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/x", "200", time.Millisecond)
		m.ObserveDBQuery("query", time.Millisecond, nil)
		m.IncReservation("vehicle", "ok")
		m.AddReleased("release", 2)
		m.IncReleaseWarning("vehicle")
		m.IncHoldsExpired("expired")
		m.IncAssignment("driver", "conflict")
		m.IncTxRetry("serialization")
	})
}

func TestCounters(t *testing.T) {
	m := NewWithRegistry("availability-test", prometheus.NewRegistry())

	m.IncReservation("vehicle", "ok")
	m.IncReservation("vehicle", "ok")
	m.AddReleased("expiry", 3)
	m.AddReleased("expiry", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("vehicle", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CapacityReleasedTotal.WithLabelValues("expiry")))
}
