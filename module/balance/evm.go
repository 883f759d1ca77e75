package balance

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/guildnet/guild-oracle/model/guild"
)

// ChainReader is the subset of an Ethereum JSON-RPC client needed to read
// balances. *ethclient.Client implements it.
type ChainReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const tokenABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenId","type":"uint256"}],"name":"ownerOf","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

var parsedTokenABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// EVM reads balances from EVM chains at the latest block.
type EVM struct {
	readers map[guild.Chain]ChainReader
}

var _ Querier = (*EVM)(nil)

func NewEVM(readers map[guild.Chain]ChainReader) *EVM {
	return &EVM{readers: readers}
}

func (q *EVM) Balance(ctx context.Context, chain guild.Chain, token guild.TokenType, address guild.EvmAddress) (*uint256.Int, error) {
	reader, ok := q.readers[chain]
	if !ok {
		return nil, fmt.Errorf("%s: %w", chain, ErrUnsupportedChain)
	}
	owner := common.Address(address)

	switch token.Kind {
	case guild.TokenNative:
		amount, err := reader.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, NewLookupError(chain, address, err)
		}
		return fromBig(chain, address, amount)

	case guild.TokenFungible:
		out, err := q.call(ctx, reader, token.Contract, "balanceOf", owner)
		if err != nil {
			return nil, NewLookupError(chain, address, err)
		}
		amount, ok := out[0].(*big.Int)
		if !ok {
			return nil, NewLookupError(chain, address, fmt.Errorf("unexpected balanceOf result %T", out[0]))
		}
		return fromBig(chain, address, amount)

	case guild.TokenNonFungible:
		out, err := q.call(ctx, reader, token.Contract, "ownerOf", token.TokenID.ToBig())
		if isReverted(err) {
			// ownerOf reverts for tokens that were never minted or are burned
			return new(uint256.Int), nil
		}
		if err != nil {
			return nil, NewLookupError(chain, address, err)
		}
		holder, ok := out[0].(common.Address)
		if !ok {
			return nil, NewLookupError(chain, address, fmt.Errorf("unexpected ownerOf result %T", out[0]))
		}
		if holder == owner {
			return uint256.NewInt(1), nil
		}
		return new(uint256.Int), nil

	default:
		return nil, fmt.Errorf("token kind %d: %w", token.Kind, ErrUnsupportedToken)
	}
}

func (q *EVM) call(ctx context.Context, reader ChainReader, contract guild.EvmAddress, method string, args ...interface{}) ([]interface{}, error) {
	input, err := parsedTokenABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("could not pack %s call: %w", method, err)
	}
	to := common.Address(contract)
	output, err := reader.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	values, err := parsedTokenABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("could not unpack %s result: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s returned %d values", method, len(values))
	}
	return values, nil
}

// revertedMessage prefixes the error a node returns for a call whose
// execution reverted.
const revertedMessage = "execution reverted"

func isReverted(err error) bool {
	return err != nil && strings.Contains(err.Error(), revertedMessage)
}

func fromBig(chain guild.Chain, address guild.EvmAddress, amount *big.Int) (*uint256.Int, error) {
	if amount.Sign() < 0 {
		return nil, NewLookupError(chain, address, fmt.Errorf("negative balance %s", amount))
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, NewLookupError(chain, address, fmt.Errorf("balance %s overflows 256 bits", amount))
	}
	return value, nil
}
