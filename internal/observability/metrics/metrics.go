package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Module provides the metrics registry and application instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(NewRegistry),
	fx.Provide(New),
)

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Metrics exposes application-level instruments.
type Metrics struct {
	gatewayRequests *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	callbacks       *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "malipo_gateway_requests_total",
			Help: "Outbound push requests by outcome (accepted, rejected, transport_error).",
		}, []string{"outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "malipo_payment_submissions_total",
			Help: "Payment submissions by outcome.",
		}, []string{"outcome"}),
		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "malipo_payment_callbacks_total",
			Help: "Gateway callbacks by result (success, failed, unmatched, duplicate).",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordGatewayRequest(outcome string) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCallback(result string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(result).Inc()
}
