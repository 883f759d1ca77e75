// Package allowlist builds Merkle allowlists of EVM addresses and produces
// the membership proofs applicants submit when joining a role.
package allowlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/merkle"
)

var (
	ErrDuplicateEntry = errors.New("duplicate allowlist entry")
	ErrNotListed      = errors.New("address is not on the allowlist")
)

// Allowlist is an ordered list of addresses committed to by a Merkle root.
// Leaf i is the 20-byte encoding of the i-th address.
type Allowlist struct {
	entries []guild.EvmAddress
	index   map[guild.EvmAddress]uint64
	tree    *merkle.Tree
}

// New commits to addrs in the given order.
func New(addrs []guild.EvmAddress) (*Allowlist, error) {
	index := make(map[guild.EvmAddress]uint64, len(addrs))
	items := make([][]byte, len(addrs))
	for i, addr := range addrs {
		if _, dup := index[addr]; dup {
			return nil, fmt.Errorf("%s at position %d: %w", addr, i, ErrDuplicateEntry)
		}
		index[addr] = uint64(i)
		items[i] = addr.Bytes()
	}
	tree, err := merkle.NewTree(items)
	if err != nil {
		return nil, err
	}
	entries := make([]guild.EvmAddress, len(addrs))
	copy(entries, addrs)
	return &Allowlist{entries: entries, index: index, tree: tree}, nil
}

// Parse reads one hex address per line. Blank lines and lines starting
// with '#' are skipped.
func Parse(r io.Reader) ([]guild.EvmAddress, error) {
	var addrs []guild.EvmAddress
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		addr, err := guild.HexToEvmAddress(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		addrs = append(addrs, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read allowlist: %w", err)
	}
	return addrs, nil
}

func (a *Allowlist) Root() guild.Hash {
	return a.tree.Root()
}

func (a *Allowlist) LeafCount() uint64 {
	return a.tree.LeafCount()
}

func (a *Allowlist) Entries() []guild.EvmAddress {
	entries := make([]guild.EvmAddress, len(a.entries))
	copy(entries, a.entries)
	return entries
}

// Requirement returns the role requirement gating on this list.
func (a *Allowlist) Requirement(logic guild.Logic) guild.Requirement {
	return guild.Allowlist(a.Root(), logic, a.LeafCount())
}

// Proof returns the membership proof of addr.
func (a *Allowlist) Proof(addr guild.EvmAddress) (guild.MerkleProof, error) {
	i, ok := a.index[addr]
	if !ok {
		return guild.MerkleProof{}, fmt.Errorf("%s: %w", addr, ErrNotListed)
	}
	return a.tree.Prove(i)
}

// AllowlistProof pairs the proof of addr with the list root, ready to be
// attached to a join request.
func (a *Allowlist) AllowlistProof(addr guild.EvmAddress) (guild.AllowlistProof, error) {
	proof, err := a.Proof(addr)
	if err != nil {
		return guild.AllowlistProof{}, err
	}
	return guild.AllowlistProof{Root: a.Root(), Proof: proof}, nil
}
