package guild

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var ErrNoRequirements = errors.New("no requirements")

// Chain enumerates the EVM chains balances can be queried on.
type Chain uint8

const (
	ChainEthereum Chain = iota + 1
	ChainPolygon
	ChainBsc
	ChainGnosis
	ChainArbitrum
)

// ChainFamily groups chains sharing an address format.
type ChainFamily uint8

const (
	ChainFamilyEvm ChainFamily = iota + 1
)

var chainNames = map[Chain]string{
	ChainEthereum: "ethereum",
	ChainPolygon:  "polygon",
	ChainBsc:      "bsc",
	ChainGnosis:   "gnosis",
	ChainArbitrum: "arbitrum",
}

func (c Chain) String() string {
	name, ok := chainNames[c]
	if !ok {
		return fmt.Sprintf("chain(%d)", uint8(c))
	}
	return name
}

// ParseChain parses a chain name.
func ParseChain(s string) (Chain, error) {
	for c, name := range chainNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown chain %q", s)
}

// Family returns the address family of the chain. Every supported chain is
// EVM-compatible; the second return value is false for unknown chains.
func (c Chain) Family() (ChainFamily, bool) {
	switch c {
	case ChainEthereum, ChainPolygon, ChainBsc, ChainGnosis, ChainArbitrum:
		return ChainFamilyEvm, true
	default:
		return 0, false
	}
}

// Logic combines boolean results.
type Logic uint8

const (
	LogicAnd Logic = iota + 1
	LogicOr
)

func (l Logic) String() string {
	switch l {
	case LogicAnd:
		return "and"
	case LogicOr:
		return "or"
	default:
		return fmt.Sprintf("logic(%d)", uint8(l))
	}
}

func (l Logic) Valid() bool {
	return l == LogicAnd || l == LogicOr
}

// Apply folds two results with the logic.
func (l Logic) Apply(a, b bool) bool {
	if l == LogicOr {
		return a || b
	}
	return a && b
}

// TokenKind selects which balance a Balance requirement looks at.
type TokenKind uint8

const (
	TokenNative TokenKind = iota + 1
	TokenFungible
	TokenNonFungible
)

func (k TokenKind) String() string {
	switch k {
	case TokenNative:
		return "native"
	case TokenFungible:
		return "fungible"
	case TokenNonFungible:
		return "non-fungible"
	default:
		return fmt.Sprintf("token(%d)", uint8(k))
	}
}

// TokenType identifies the asset of a Balance requirement: the native coin,
// an ERC-20 contract, or a single ERC-721 token.
type TokenType struct {
	Kind     TokenKind
	Contract EvmAddress
	TokenID  uint256.Int
}

func NativeToken() TokenType {
	return TokenType{Kind: TokenNative}
}

func FungibleToken(contract EvmAddress) TokenType {
	return TokenType{Kind: TokenFungible, Contract: contract}
}

func NonFungibleToken(contract EvmAddress, id *uint256.Int) TokenType {
	return TokenType{Kind: TokenNonFungible, Contract: contract, TokenID: *id}
}

func (t TokenType) Validate() error {
	switch t.Kind {
	case TokenNative:
		if t.Contract != (EvmAddress{}) || !t.TokenID.IsZero() {
			return fmt.Errorf("native token must not carry a contract or token id")
		}
		return nil
	case TokenFungible:
		if !t.TokenID.IsZero() {
			return fmt.Errorf("fungible token must not carry a token id")
		}
		return nil
	case TokenNonFungible:
		return nil
	default:
		return fmt.Errorf("invalid token kind %d", t.Kind)
	}
}

// RequirementKind tags the variant of a Requirement.
type RequirementKind uint8

const (
	RequirementFree RequirementKind = iota + 1
	RequirementBalance
	RequirementAllowlist
)

func (k RequirementKind) String() string {
	switch k {
	case RequirementFree:
		return "free"
	case RequirementBalance:
		return "balance"
	case RequirementAllowlist:
		return "allowlist"
	default:
		return fmt.Sprintf("requirement(%d)", uint8(k))
	}
}

// BalanceRequirement holds if the balance of Token on Chain satisfies
// Relation.
type BalanceRequirement struct {
	Chain    Chain
	Token    TokenType
	Relation Relation
}

// AllowlistRequirement commits to an off-chain list of EVM addresses by its
// Merkle root. Logic decides how membership combines with the rest of the
// role's requirements.
type AllowlistRequirement struct {
	Root      Hash
	Logic     Logic
	LeafCount uint64
}

// Requirement is a single eligibility check. Kind selects which of the
// optional fields is populated.
type Requirement struct {
	Kind      RequirementKind
	Balance   *BalanceRequirement
	Allowlist *AllowlistRequirement
}

func Free() Requirement {
	return Requirement{Kind: RequirementFree}
}

func Balance(chain Chain, token TokenType, relation Relation) Requirement {
	return Requirement{
		Kind:    RequirementBalance,
		Balance: &BalanceRequirement{Chain: chain, Token: token, Relation: relation},
	}
}

func Allowlist(root Hash, logic Logic, leafCount uint64) Requirement {
	return Requirement{
		Kind:      RequirementAllowlist,
		Allowlist: &AllowlistRequirement{Root: root, Logic: logic, LeafCount: leafCount},
	}
}

// Validate checks that the requirement is well formed.
func (r Requirement) Validate() error {
	switch r.Kind {
	case RequirementFree:
		if r.Balance != nil || r.Allowlist != nil {
			return fmt.Errorf("free requirement must not carry parameters")
		}
		return nil
	case RequirementBalance:
		if r.Balance == nil || r.Allowlist != nil {
			return fmt.Errorf("balance requirement must carry balance parameters only")
		}
		if _, ok := r.Balance.Chain.Family(); !ok {
			return fmt.Errorf("unsupported chain %d", r.Balance.Chain)
		}
		err := r.Balance.Token.Validate()
		if err != nil {
			return fmt.Errorf("invalid token: %w", err)
		}
		err = r.Balance.Relation.Validate()
		if err != nil {
			return fmt.Errorf("invalid relation: %w", err)
		}
		return nil
	case RequirementAllowlist:
		if r.Allowlist == nil || r.Balance != nil {
			return fmt.Errorf("allowlist requirement must carry allowlist parameters only")
		}
		if !r.Allowlist.Logic.Valid() {
			return fmt.Errorf("invalid allowlist logic %d", r.Allowlist.Logic)
		}
		if r.Allowlist.LeafCount == 0 {
			return fmt.Errorf("allowlist must not be empty")
		}
		return nil
	default:
		return fmt.Errorf("invalid requirement kind %d", r.Kind)
	}
}

// RequirementsWithLogic is an ordered set of requirements combined
// uniformly with Logic.
type RequirementsWithLogic struct {
	Requirements []Requirement
	Logic        Logic
}

func (r RequirementsWithLogic) Validate() error {
	if len(r.Requirements) == 0 {
		return ErrNoRequirements
	}
	if !r.Logic.Valid() {
		return fmt.Errorf("invalid logic %d", r.Logic)
	}
	for i, req := range r.Requirements {
		err := req.Validate()
		if err != nil {
			return fmt.Errorf("invalid requirement %d: %w", i, err)
		}
	}
	return nil
}
