package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CustomersCreatedTotal prometheus.Counter
	MFAOperationsTotal    *prometheus.CounterVec
	EnrollmentsByStatus   *prometheus.GaugeVec
	MFAEnabledCustomers   prometheus.Gauge
}

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enrollment_api_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CustomersCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "enrollment_api_customers_created_total",
				Help: "Total number of customers successfully created.",
			},
		),
		MFAOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrollment_api_mfa_operations_total",
				Help: "MFA operations by kind and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		EnrollmentsByStatus: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "enrollment_api_enrollments",
				Help: "Current number of customers per enrollment status.",
			},
			[]string{"status"},
		),
		MFAEnabledCustomers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "enrollment_api_mfa_enabled_customers",
				Help: "Current number of customers with MFA enabled.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCustomerCreated() {
	Business.CustomersCreatedTotal.Inc()
}

func RecordMFAOperation(operation, outcome string) {
	Business.MFAOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func SetEnrollmentGauge(status string, count int64) {
	Business.EnrollmentsByStatus.WithLabelValues(status).Set(float64(count))
}

func SetMFAEnabledCustomers(count int64) {
	Business.MFAEnabledCustomers.Set(float64(count))
}

// Outcome maps a boolean/error result to an outcome label.
func Outcome(ok bool, err error) string {
	switch {
	case err != nil:
		return OutcomeError
	case ok:
		return OutcomeSuccess
	default:
		return OutcomeRejected
	}
}
