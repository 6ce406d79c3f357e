package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-метрик сервиса.
// Методы безопасно вызывать на nil (метрики выключены в конфиге).
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBQueryErrors     *prometheus.CounterVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	ReservationsTotal     *prometheus.CounterVec
	CapacityReleasedTotal *prometheus.CounterVec
	ReleaseWarningsTotal  *prometheus.CounterVec
	HoldsExpiredTotal     *prometheus.CounterVec
	AssignmentsTotal      *prometheus.CounterVec
	TxRetriesTotal        *prometheus.CounterVec
}

// New регистрирует метрики в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry регистрирует метрики в указанном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency.",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Database query errors.",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		DBOpenConnections: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open connections in the pool.",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBInUse: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Connections currently in use.",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBIdle: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle connections in the pool.",
			ConstLabels: constLabels,
		}, []string{"db"}),
		DBWaitCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for.",
			ConstLabels: constLabels,
		}, []string{"db"}),

		ReservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_reservations_total",
			Help:        "Reserve calls grouped by resource type and result.",
			ConstLabels: constLabels,
		}, []string{"resource_type", "result"}),
		CapacityReleasedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_released_units_total",
			Help:        "Capacity units released, grouped by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		ReleaseWarningsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_release_warnings_total",
			Help:        "Releases that asked for more than was reserved.",
			ConstLabels: constLabels,
		}, []string{"resource_type"}),
		HoldsExpiredTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservation_holds_expired_total",
			Help:        "Bookings whose holds were released by the expiry sweep.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		AssignmentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "exclusive_assignments_total",
			Help:        "Exclusive assignment attempts grouped by result.",
			ConstLabels: constLabels,
		}, []string{"resource_type", "result"}),
		TxRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_tx_retries_total",
			Help:        "Transactions retried after a transient failure.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(db string, open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.DBOpenConnections.WithLabelValues(db).Set(float64(open))
	m.DBInUse.WithLabelValues(db).Set(float64(inUse))
	m.DBIdle.WithLabelValues(db).Set(float64(idle))
	m.DBWaitCount.WithLabelValues(db).Set(float64(waitCount))
}

// IncReservation фиксирует результат резервирования
func (m *Metrics) IncReservation(resourceType, result string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(resourceType, result).Inc()
}

// AddReleased фиксирует количество освобожденных единиц емкости
func (m *Metrics) AddReleased(reason string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.CapacityReleasedTotal.WithLabelValues(reason).Add(float64(units))
}

// IncReleaseWarning фиксирует попытку освободить больше, чем зарезервировано
func (m *Metrics) IncReleaseWarning(resourceType string) {
	if m == nil {
		return
	}
	m.ReleaseWarningsTotal.WithLabelValues(resourceType).Inc()
}

// IncHoldsExpired фиксирует результат истечения холдов бронирования
func (m *Metrics) IncHoldsExpired(result string) {
	if m == nil {
		return
	}
	m.HoldsExpiredTotal.WithLabelValues(result).Inc()
}

// IncAssignment фиксирует результат создания эксклюзивного назначения
func (m *Metrics) IncAssignment(resourceType, result string) {
	if m == nil {
		return
	}
	m.AssignmentsTotal.WithLabelValues(resourceType, result).Inc()
}

// IncTxRetry фиксирует повтор транзакции
func (m *Metrics) IncTxRetry(reason string) {
	if m == nil {
		return
	}
	m.TxRetriesTotal.WithLabelValues(reason).Inc()
}
