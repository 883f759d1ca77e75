package requirements

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/allowlist"
	"github.com/guildnet/guild-oracle/module/balance"
	"github.com/guildnet/guild-oracle/module/merkle"
)

// Policy decides how evaluation errors affect the combined result.
type Policy uint8

const (
	// StrictErrors fails the whole evaluation if any requirement errored.
	StrictErrors Policy = iota
	// UnknownAsUnsatisfied treats requirements that errored as not met.
	UnknownAsUnsatisfied
)

func (p Policy) String() string {
	switch p {
	case StrictErrors:
		return "strict"
	case UnknownAsUnsatisfied:
		return "unknown-as-unsatisfied"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	for _, p := range []Policy{StrictErrors, UnknownAsUnsatisfied} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown policy %q", s)
}

// AllowlistProvider resolves the full list behind a committed root, so that
// the checker can build proofs for applicants that did not supply one.
type AllowlistProvider interface {
	// Allowlist returns the list committed to by root, or false if unknown.
	Allowlist(root guild.Hash) (*allowlist.Allowlist, bool)
}

// Checker evaluates requirements against the identities of an account.
// It holds no mutable state and is safe for concurrent use.
type Checker struct {
	balances   balance.Querier
	allowlists AllowlistProvider
	policy     Policy
}

// NewChecker returns a checker. allowlists may be nil, in which case
// allowlist requirements can only be met with an explicit proof.
func NewChecker(balances balance.Querier, allowlists AllowlistProvider, policy Policy) *Checker {
	return &Checker{
		balances:   balances,
		allowlists: allowlists,
		policy:     policy,
	}
}

// Policy returns the error policy the checker was built with.
func (c *Checker) Policy() Policy {
	return c.policy
}

// Check evaluates a single requirement. proofs are the allowlist proofs the
// applicant supplied; the one matching an allowlist root is used.
//
// Expected errors:
//   - ErrMissingIdentity if the requirement needs an EVM identity
//   - ErrInvalidProof if an allowlist proof is malformed or unavailable
//   - ExternalLookupError if a balance lookup failed
func (c *Checker) Check(ctx context.Context, req guild.Requirement, identities guild.IdentityMap, proofs []guild.AllowlistProof) (bool, error) {
	err := req.Validate()
	if err != nil {
		return false, fmt.Errorf("invalid requirement: %w", err)
	}

	switch req.Kind {
	case guild.RequirementFree:
		return true, nil
	case guild.RequirementBalance:
		return c.checkBalance(ctx, req.Balance, identities)
	case guild.RequirementAllowlist:
		return c.checkAllowlist(req.Allowlist, identities, proofs)
	default:
		return false, fmt.Errorf("unknown requirement kind %d", req.Kind)
	}
}

func (c *Checker) checkBalance(ctx context.Context, req *guild.BalanceRequirement, identities guild.IdentityMap) (bool, error) {
	family, ok := req.Chain.Family()
	if !ok {
		return false, fmt.Errorf("unknown chain %d", req.Chain)
	}
	switch family {
	case guild.ChainFamilyEvm:
		addr, ok := identities.EvmAddress()
		if !ok {
			return false, fmt.Errorf("balance on %s needs an evm address: %w", req.Chain, ErrMissingIdentity)
		}
		amount, err := c.balances.Balance(ctx, req.Chain, req.Token, addr)
		if err != nil {
			return false, NewExternalLookupError(req.Chain, err)
		}
		return req.Relation.Assert(amount), nil
	default:
		return false, fmt.Errorf("unsupported chain family %d", family)
	}
}

func (c *Checker) checkAllowlist(req *guild.AllowlistRequirement, identities guild.IdentityMap, proofs []guild.AllowlistProof) (bool, error) {
	addr, ok := identities.EvmAddress()
	if !ok {
		return false, fmt.Errorf("allowlist needs an evm address: %w", ErrMissingIdentity)
	}

	proof, ok := findProof(proofs, req.Root)
	if !ok {
		if c.allowlists == nil {
			return false, fmt.Errorf("no proof supplied for allowlist %s: %w", req.Root, ErrInvalidProof)
		}
		list, known := c.allowlists.Allowlist(req.Root)
		if !known {
			return false, fmt.Errorf("allowlist %s is unknown and no proof was supplied: %w", req.Root, ErrInvalidProof)
		}
		var err error
		proof, err = list.Proof(addr)
		if errors.Is(err, allowlist.ErrNotListed) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("could not build proof for %s: %w", addr, err)
		}
	}
	return verifyMembership(proof, req, addr)
}

func verifyMembership(proof guild.MerkleProof, req *guild.AllowlistRequirement, addr guild.EvmAddress) (bool, error) {
	ok, err := merkle.Verify(proof, req.Root, req.LeafCount, addr.Bytes())
	if err != nil {
		return false, fmt.Errorf("%v: %w", err, ErrInvalidProof)
	}
	return ok, nil
}

func findProof(proofs []guild.AllowlistProof, root guild.Hash) (guild.MerkleProof, bool) {
	for _, p := range proofs {
		if p.Root == root {
			return p.Proof, true
		}
	}
	return guild.MerkleProof{}, false
}

type outcome struct {
	ok  bool
	err error
}

// CheckAll evaluates every requirement of a role and combines the results.
//
// Every requirement is evaluated even after a failure, and errors are
// collected. Under StrictErrors any error fails the evaluation; under
// UnknownAsUnsatisfied errored requirements count as not met.
//
// Balance and free requirements are folded with the role logic. Each
// allowlist requirement is then combined with that fold using its own
// logic. If the role consists only of allowlists, their results are folded
// with the role logic directly.
func (c *Checker) CheckAll(ctx context.Context, reqs guild.RequirementsWithLogic, identities guild.IdentityMap, proofs []guild.AllowlistProof) (bool, error) {
	if len(reqs.Requirements) == 0 {
		return false, guild.ErrNoRequirements
	}
	if !reqs.Logic.Valid() {
		return false, fmt.Errorf("invalid logic %d", reqs.Logic)
	}

	outcomes := make([]outcome, len(reqs.Requirements))
	var errs *multierror.Error
	for i, req := range reqs.Requirements {
		ok, err := c.Check(ctx, req, identities, proofs)
		if err != nil {
			err = RequirementError{Index: i, Kind: req.Kind, err: err}
			errs = multierror.Append(errs, err)
		}
		outcomes[i] = outcome{ok: ok && err == nil, err: err}
	}

	if err := errs.ErrorOrNil(); err != nil && c.policy == StrictErrors {
		return false, err
	}

	// only allowlists: fold them with the role logic like any other set
	if onlyAllowlists(reqs.Requirements) {
		folded := outcomes[0].ok
		for _, o := range outcomes[1:] {
			folded = reqs.Logic.Apply(folded, o.ok)
		}
		return folded, nil
	}

	var (
		folded    bool
		hasFolded bool
	)
	for i, req := range reqs.Requirements {
		if req.Kind == guild.RequirementAllowlist {
			continue
		}
		if !hasFolded {
			folded, hasFolded = outcomes[i].ok, true
			continue
		}
		folded = reqs.Logic.Apply(folded, outcomes[i].ok)
	}
	for i, req := range reqs.Requirements {
		if req.Kind == guild.RequirementAllowlist {
			folded = req.Allowlist.Logic.Apply(folded, outcomes[i].ok)
		}
	}
	return folded, nil
}

func onlyAllowlists(reqs []guild.Requirement) bool {
	for _, req := range reqs {
		if req.Kind != guild.RequirementAllowlist {
			return false
		}
	}
	return true
}
