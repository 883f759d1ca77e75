package balance

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/holiman/uint256"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/metrics"
)

// Cached memoises balances of a backing Querier for a short time. Errors
// are not cached.
type Cached struct {
	backend   Querier
	collector module.CacheMetrics
	cache     *expirable.LRU[balanceKey, uint256.Int]
}

var _ Querier = (*Cached)(nil)

func NewCached(backend Querier, collector module.CacheMetrics, size int, ttl time.Duration) *Cached {
	return &Cached{
		backend:   backend,
		collector: collector,
		cache:     expirable.NewLRU[balanceKey, uint256.Int](size, nil, ttl),
	}
}

func (c *Cached) Balance(ctx context.Context, chain guild.Chain, token guild.TokenType, address guild.EvmAddress) (*uint256.Int, error) {
	key := balanceKey{chain: chain, token: token, address: address}
	if amount, ok := c.cache.Get(key); ok {
		c.collector.CacheHit(metrics.ResourceBalance)
		return &amount, nil
	}

	amount, err := c.backend.Balance(ctx, chain, token, address)
	if err != nil {
		return nil, err
	}
	c.collector.CacheMiss(metrics.ResourceBalance)
	c.cache.Add(key, *amount)
	c.collector.CacheEntries(metrics.ResourceBalance, uint(c.cache.Len()))
	return new(uint256.Int).Set(amount), nil
}
