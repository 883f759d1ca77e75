package merkle

import (
	"github.com/guildnet/guild-oracle/model/guild"
)

// Domain separation prefixes so that an inner node can never be presented
// as a leaf.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// HashLeaf returns the leaf hash of an item's canonical byte encoding.
func HashLeaf(item []byte) guild.Hash {
	return guild.Keccak256([]byte{leafPrefix}, item)
}

// HashNode combines two child hashes.
func HashNode(left, right guild.Hash) guild.Hash {
	return guild.Keccak256([]byte{nodePrefix}, left[:], right[:])
}

// Depth returns the number of sibling hashes in a proof for a tree with
// leafCount leaves.
func Depth(leafCount uint64) int {
	depth := 0
	for size := leafCount; size > 1; size = size/2 + size%2 {
		depth++
	}
	return depth
}

// Tree is a binary Merkle tree over an ordered list of items. When a level
// has an odd number of nodes, its last node is paired with itself.
type Tree struct {
	levels [][]guild.Hash
}

// NewTree builds the tree bottom-up. It returns ErrEmptyTree for an empty
// item list.
func NewTree(items [][]byte) (*Tree, error) {
	if len(items) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]guild.Hash, len(items))
	for i, item := range items {
		level[i] = HashLeaf(item)
	}

	levels := [][]guild.Hash{level}
	for len(level) > 1 {
		next := make([]guild.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, HashNode(left, right))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}, nil
}

// Root returns the root hash.
func (t *Tree) Root() guild.Hash {
	return t.levels[len(t.levels)-1][0]
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() uint64 {
	return uint64(len(t.levels[0]))
}

// Prove returns the sibling path of the leaf at index.
func (t *Tree) Prove(index uint64) (guild.MerkleProof, error) {
	if index >= t.LeafCount() {
		return guild.MerkleProof{}, IndexOutOfRangeError{Index: index, Count: t.LeafCount()}
	}

	siblings := make([]guild.Hash, 0, len(t.levels)-1)
	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := pos ^ 1
		if sibling >= uint64(len(level)) {
			// last node of an odd level is paired with itself
			sibling = pos
		}
		siblings = append(siblings, level[sibling])
		pos /= 2
	}

	return guild.MerkleProof{Siblings: siblings, LeafIndex: index}, nil
}

// BuildRoot returns the root over items.
func BuildRoot(items [][]byte) (guild.Hash, error) {
	tree, err := NewTree(items)
	if err != nil {
		return guild.ZeroHash, err
	}
	return tree.Root(), nil
}

// Prove builds the tree over items and returns the proof for the leaf at
// index.
func Prove(items [][]byte, index uint64) (guild.MerkleProof, error) {
	tree, err := NewTree(items)
	if err != nil {
		return guild.MerkleProof{}, err
	}
	return tree.Prove(index)
}
