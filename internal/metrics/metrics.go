// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registry for all gateway metrics.
var Registry = prometheus.NewRegistry()

var (
	once     sync.Once
	instance *GatewayMetrics
)

// GatewayMetrics holds all Prometheus metrics for the gateway.
type GatewayMetrics struct {
	RequestsTotal   *prometheus.CounterVec // cove_requests_total{operation,status}
	BytesUploaded   prometheus.Counter     // cove_bytes_uploaded_total
	BytesDownloaded prometheus.Counter     // cove_bytes_downloaded_total
	QuotaRejections prometheus.Counter     // cove_quota_rejections_total
}

// Gateway returns the gateway metrics.
// They are only registered once, subsequent calls return the same instance.
func Gateway() *GatewayMetrics {
	once.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		instance = &GatewayMetrics{
			RequestsTotal: promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
				Name: "cove_requests_total",
				Help: "Total gateway requests by operation and status",
			}, []string{"operation", "status"}),

			BytesUploaded: promauto.With(Registry).NewCounter(prometheus.CounterOpts{
				Name: "cove_bytes_uploaded_total",
				Help: "Total bytes written through the gateway",
			}),

			BytesDownloaded: promauto.With(Registry).NewCounter(prometheus.CounterOpts{
				Name: "cove_bytes_downloaded_total",
				Help: "Total bytes read through the gateway",
			}),

			QuotaRejections: promauto.With(Registry).NewCounter(prometheus.CounterOpts{
				Name: "cove_quota_rejections_total",
				Help: "Total writes rejected by the quota ledger",
			}),
		}
	})
	return instance
}
