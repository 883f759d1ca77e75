package module

import (
	"time"

	"github.com/guildnet/guild-oracle/model/guild"
)

type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheNotFound records the number of times the queried item was not found in either cache or database.
	CacheNotFound(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache, but found in the database.
	CacheMiss(resource string)
}

// OracleMetrics is consumed by the request coordinator. Implementations must
// be non-blocking and concurrency safe.
type OracleMetrics interface {
	RequestSubmitted(kind guild.RequestKind)
	// RequestFinalized reports a request reaching Answered, Rejected or Expired.
	RequestFinalized(kind guild.RequestKind, status guild.RequestStatus)
	UnauthorizedCallback()
	ActiveOperators(n int)
	BlockHeight(height uint64)
}

// OperatorMetrics is consumed by the operator engine.
type OperatorMetrics interface {
	JobStarted()
	JobFinished(kind guild.RequestKind, outcome string, duration time.Duration)
	LookupRetried(chain guild.Chain)
}
