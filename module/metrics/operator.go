package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guildnet/guild-oracle/model/guild"
)

// OperatorCollector implements metric collection for an operator node.
type OperatorCollector struct {
	jobs          *prometheus.CounterVec
	inFlight      prometheus.Gauge
	lookupRetries *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
}

func NewOperatorCollector(registerer prometheus.Registerer) *OperatorCollector {
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceOperator,
		Subsystem: subsystemJobs,
		Name:      "processed_total",
		Help:      "the number of assigned requests processed, by kind and outcome",
	}, []string{LabelKind, LabelOutcome})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceOperator,
		Subsystem: subsystemJobs,
		Name:      "in_flight",
		Help:      "the number of requests currently being processed",
	})
	lookupRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceOperator,
		Subsystem: subsystemLookup,
		Name:      "retries_total",
		Help:      "the number of external balance lookups that were retried, by chain",
	}, []string{LabelChain})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespaceOperator,
		Subsystem: subsystemJobs,
		Name:      "duration_seconds",
		Help:      "the time from picking up a request to submitting its answer",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{LabelKind})
	registerer.MustRegister(jobs, inFlight, lookupRetries, jobDuration)

	return &OperatorCollector{
		jobs:          jobs,
		inFlight:      inFlight,
		lookupRetries: lookupRetries,
		jobDuration:   jobDuration,
	}
}

func (oc *OperatorCollector) JobStarted() {
	oc.inFlight.Inc()
}

func (oc *OperatorCollector) JobFinished(kind guild.RequestKind, outcome string, duration time.Duration) {
	oc.inFlight.Dec()
	oc.jobs.WithLabelValues(kind.String(), outcome).Inc()
	oc.jobDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
}

func (oc *OperatorCollector) LookupRetried(chain guild.Chain) {
	oc.lookupRetries.WithLabelValues(chain.String()).Inc()
}
