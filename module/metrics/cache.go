package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheCollector reports hit rates of the storage read caches.
type CacheCollector struct {
	entries  *prometheus.GaugeVec
	hits     *prometheus.CounterVec
	notFound *prometheus.CounterVec
	misses   *prometheus.CounterVec
}

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {
	cm := &CacheCollector{
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Name:      "entries_total",
			Help:      "the number of entries in the cache",
		}, []string{LabelResource}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Name:      "hits_total",
			Help:      "the number of hits for the cache",
		}, []string{LabelResource}),
		notFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Name:      "notfounds_total",
			Help:      "the number of times the queried item was not found in either cache or database",
		}, []string{LabelResource}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceStorage,
			Subsystem: subsystemCache,
			Name:      "misses_total",
			Help:      "the number of times the queried item was found in the database but not the cache",
		}, []string{LabelResource}),
	}
	registerer.MustRegister(cm.entries, cm.hits, cm.notFound, cm.misses)
	return cm
}

func (cc *CacheCollector) CacheEntries(resource string, entries uint) {
	cc.entries.With(prometheus.Labels{LabelResource: resource}).Set(float64(entries))
}

func (cc *CacheCollector) CacheHit(resource string) {
	cc.hits.With(prometheus.Labels{LabelResource: resource}).Inc()
}

func (cc *CacheCollector) CacheNotFound(resource string) {
	cc.notFound.With(prometheus.Labels{LabelResource: resource}).Inc()
}

func (cc *CacheCollector) CacheMiss(resource string) {
	cc.misses.With(prometheus.Labels{LabelResource: resource}).Inc()
}
