package metrics

import (
	"time"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
)

type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

var _ module.CacheMetrics = (*NoopCollector)(nil)
var _ module.OracleMetrics = (*NoopCollector)(nil)
var _ module.OperatorMetrics = (*NoopCollector)(nil)

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                             {}
func (nc *NoopCollector) CacheHit(resource string)                                               {}
func (nc *NoopCollector) CacheNotFound(resource string)                                          {}
func (nc *NoopCollector) CacheMiss(resource string)                                              {}
func (nc *NoopCollector) RequestSubmitted(guild.RequestKind)                                     {}
func (nc *NoopCollector) RequestFinalized(guild.RequestKind, guild.RequestStatus)                {}
func (nc *NoopCollector) UnauthorizedCallback()                                                  {}
func (nc *NoopCollector) ActiveOperators(int)                                                    {}
func (nc *NoopCollector) BlockHeight(uint64)                                                     {}
func (nc *NoopCollector) JobStarted()                                                            {}
func (nc *NoopCollector) JobFinished(kind guild.RequestKind, outcome string, took time.Duration) {}
func (nc *NoopCollector) LookupRetried(guild.Chain)                                              {}
