// metrics: Prometheus-метрики HTTP-слоя.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics: набор коллекторов сервиса.
type Metrics struct {
	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	AuthRejections *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg.
// nil-регистратор означает prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Количество обработанных HTTP-запросов.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Длительность обработки HTTP-запросов.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Отказы в аутентификации по причинам.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.Requests, m.Duration, m.AuthRejections)

	return m
}
