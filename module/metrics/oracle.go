package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/guildnet/guild-oracle/model/guild"
)

// OracleCollector implements metric collection for the request coordinator.
type OracleCollector struct {
	submitted       *prometheus.CounterVec
	finalized       *prometheus.CounterVec
	unauthorized    prometheus.Counter
	activeOperators prometheus.Gauge
	height          prometheus.Gauge
}

func NewOracleCollector(registerer prometheus.Registerer) *OracleCollector {
	submitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceOracle,
		Subsystem: subsystemRequests,
		Name:      "submitted_total",
		Help:      "the number of requests submitted, by kind",
	}, []string{LabelKind})
	finalized := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceOracle,
		Subsystem: subsystemRequests,
		Name:      "finalized_total",
		Help:      "the number of requests that reached a terminal status, by kind and status",
	}, []string{LabelKind, LabelOutcome})
	unauthorized := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceOracle,
		Subsystem: subsystemRequests,
		Name:      "unauthorized_callbacks_total",
		Help:      "the number of callbacks rejected because the caller was not the assigned operator",
	})
	activeOperators := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceOracle,
		Subsystem: subsystemOperators,
		Name:      "active",
		Help:      "the number of operators currently eligible for assignment",
	})
	height := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceOracle,
		Name:      "block_height",
		Help:      "the current ledger height",
	})
	registerer.MustRegister(submitted, finalized, unauthorized, activeOperators, height)

	return &OracleCollector{
		submitted:       submitted,
		finalized:       finalized,
		unauthorized:    unauthorized,
		activeOperators: activeOperators,
		height:          height,
	}
}

func (oc *OracleCollector) RequestSubmitted(kind guild.RequestKind) {
	oc.submitted.WithLabelValues(kind.String()).Inc()
}

func (oc *OracleCollector) RequestFinalized(kind guild.RequestKind, status guild.RequestStatus) {
	oc.finalized.WithLabelValues(kind.String(), status.String()).Inc()
}

func (oc *OracleCollector) UnauthorizedCallback() {
	oc.unauthorized.Inc()
}

func (oc *OracleCollector) ActiveOperators(n int) {
	oc.activeOperators.Set(float64(n))
}

func (oc *OracleCollector) BlockHeight(height uint64) {
	oc.height.Set(float64(height))
}
