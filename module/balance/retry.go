package balance

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/util"
)

// Retrying retries LookupErrors of a backing Querier with bounded
// exponential backoff. Exhaustion surfaces as util.RetryTimeoutError.
type Retrying struct {
	log     zerolog.Logger
	backend Querier
	metrics module.OperatorMetrics
	config  util.RetryConfig
}

var _ Querier = (*Retrying)(nil)

func NewRetrying(log zerolog.Logger, backend Querier, metrics module.OperatorMetrics, config util.RetryConfig) *Retrying {
	return &Retrying{
		log:     log.With().Str("component", "balance_retry").Logger(),
		backend: backend,
		metrics: metrics,
		config:  config,
	}
}

func (r *Retrying) Balance(ctx context.Context, chain guild.Chain, token guild.TokenType, address guild.EvmAddress) (*uint256.Int, error) {
	var amount *uint256.Int
	attempt := 0
	err := util.Retry(ctx, r.config, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			r.metrics.LookupRetried(chain)
		}
		var err error
		amount, err = r.backend.Balance(ctx, chain, token, address)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrUnsupportedChain) || errors.Is(err, ErrUnsupportedToken) {
			return err
		}
		r.log.Warn().Err(err).
			Int("attempt", attempt).
			Str("chain", chain.String()).
			Str("address", address.String()).
			Msg("balance lookup failed")
		return util.Transient(err)
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
