package unittest

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/merkle"
)

// FixtureConfig parametrises fixture generation. Tests that need to
// reproduce a run pass the logged seed explicitly.
type FixtureConfig struct {
	Seed int64
}

// Fixtures generates deterministic test data from a seeded PRG.
type Fixtures struct {
	rng *rand.Rand
}

// NewFixtures returns a generator for the given configuration.
func NewFixtures(cfg FixtureConfig) *Fixtures {
	return &Fixtures{rng: rand.New(rand.NewSource(cfg.Seed))}
}

// FixturesFor seeds a generator from the clock and logs the seed so the
// test iteration can be reproduced.
func FixturesFor(t testing.TB) *Fixtures {
	seed := time.Now().UnixNano()
	t.Logf("fixture seed is %d", seed)
	return NewFixtures(FixtureConfig{Seed: seed})
}

// Bytes returns n random bytes.
func (f *Fixtures) Bytes(n int) []byte {
	b := make([]byte, n)
	_, _ = f.rng.Read(b)
	return b
}

// Uint64InRange returns a value in [min, max].
func (f *Fixtures) Uint64InRange(min, max uint64) uint64 {
	return min + uint64(f.rng.Int63n(int64(max-min)+1))
}

func (f *Fixtures) AccountID() guild.AccountID {
	var id guild.AccountID
	copy(id[:], f.Bytes(guild.AccountIDLength))
	return id
}

func (f *Fixtures) EvmAddress() guild.EvmAddress {
	var addr guild.EvmAddress
	copy(addr[:], f.Bytes(guild.EvmAddressLength))
	return addr
}

// EvmAddresses returns n distinct addresses.
func (f *Fixtures) EvmAddresses(n int) []guild.EvmAddress {
	seen := make(map[guild.EvmAddress]struct{}, n)
	addrs := make([]guild.EvmAddress, 0, n)
	for len(addrs) < n {
		addr := f.EvmAddress()
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	return addrs
}

func (f *Fixtures) Hash() guild.Hash {
	var h guild.Hash
	copy(h[:], f.Bytes(guild.HashLength))
	return h
}

// Name returns a unique-looking name with the given prefix.
func (f *Fixtures) Name(prefix string) guild.Name {
	return guild.MustName(fmt.Sprintf("%s-%08x", prefix, f.rng.Uint32()))
}

// AllowlistFixture returns the leaf encodings of addrs together with the
// allowlist requirement committing to them.
func AllowlistFixture(addrs []guild.EvmAddress, logic guild.Logic) ([][]byte, guild.Requirement) {
	items := make([][]byte, len(addrs))
	for i, addr := range addrs {
		items[i] = addr.Bytes()
	}
	root, err := merkle.BuildRoot(items)
	if err != nil {
		panic(fmt.Sprintf("could not build allowlist fixture: %v", err))
	}
	return items, guild.Allowlist(root, logic, uint64(len(items)))
}

// NativeBalanceFixture returns a requirement on the native balance on
// Ethereum.
func NativeBalanceFixture(relation guild.Relation) guild.Requirement {
	return guild.Balance(guild.ChainEthereum, guild.NativeToken(), relation)
}

// AtLeast is shorthand for GreaterOrEqualTo over a small value.
func AtLeast(v uint64) guild.Relation {
	return guild.GreaterOrEqualTo(uint256.NewInt(v))
}

// RoleFixture builds a role from its requirements.
func RoleFixture(name guild.Name, logic guild.Logic, reqs ...guild.Requirement) guild.Role {
	return guild.Role{
		Name: name,
		Requirements: guild.RequirementsWithLogic{
			Requirements: reqs,
			Logic:        logic,
		},
	}
}

// RequestFixture returns a pending request with the given fields.
func (f *Fixtures) RequestFixture(id guild.RequestID, operator guild.AccountID, opts ...func(*guild.Request)) *guild.Request {
	req := &guild.Request{
		ID:        id,
		Requester: f.AccountID(),
		Kind:      guild.RequestGeneric,
		Payload:   f.Bytes(16),
		Operator:  operator,
		CreatedAt: 1,
		ExpiresAt: 11,
		Status:    guild.RequestPending,
	}
	for _, opt := range opts {
		opt(req)
	}
	return req
}

func WithRequestStatus(status guild.RequestStatus) func(*guild.Request) {
	return func(r *guild.Request) {
		r.Status = status
	}
}

func WithRequestWindow(created, expires uint64) func(*guild.Request) {
	return func(r *guild.Request) {
		r.CreatedAt = created
		r.ExpiresAt = expires
	}
}
