package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/guildnet/guild-oracle/model/guild"
)

var (
	// ErrUnsupportedChain is returned for chains the querier has no client for.
	ErrUnsupportedChain = errors.New("unsupported chain")
	// ErrUnsupportedToken is returned for token kinds the querier cannot price.
	ErrUnsupportedToken = errors.New("unsupported token")
)

// Querier resolves the balance an address holds of a token on a chain.
//
// Non-fungible tokens resolve to 1 if the address owns the token and 0
// otherwise. Implementations are safe for concurrent use.
type Querier interface {
	Balance(ctx context.Context, chain guild.Chain, token guild.TokenType, address guild.EvmAddress) (*uint256.Int, error)
}

// LookupError is a failure to reach or decode the answer of an external
// chain. It is always worth retrying.
type LookupError struct {
	Chain   guild.Chain
	Address guild.EvmAddress
	err     error
}

func NewLookupError(chain guild.Chain, address guild.EvmAddress, err error) LookupError {
	return LookupError{Chain: chain, Address: address, err: err}
}

func (e LookupError) Error() string {
	return fmt.Sprintf("balance lookup of %s on %s failed: %v", e.Address, e.Chain, e.err)
}

func (e LookupError) Unwrap() error {
	return e.err
}

// IsLookupError returns true if err is a LookupError.
func IsLookupError(err error) bool {
	var e LookupError
	return errors.As(err, &e)
}

type balanceKey struct {
	chain   guild.Chain
	token   guild.TokenType
	address guild.EvmAddress
}

// Static serves balances from a fixed table. Missing entries are zero.
type Static struct {
	balances map[balanceKey]*uint256.Int
}

var _ Querier = (*Static)(nil)

func NewStatic() *Static {
	return &Static{balances: make(map[balanceKey]*uint256.Int)}
}

// Set records a balance. It is not safe to call concurrently with Balance.
func (s *Static) Set(chain guild.Chain, token guild.TokenType, address guild.EvmAddress, amount *uint256.Int) *Static {
	s.balances[balanceKey{chain, token, address}] = new(uint256.Int).Set(amount)
	return s
}

func (s *Static) Balance(_ context.Context, chain guild.Chain, token guild.TokenType, address guild.EvmAddress) (*uint256.Int, error) {
	amount, ok := s.balances[balanceKey{chain, token, address}]
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(amount), nil
}
