package merkle

import (
	"github.com/guildnet/guild-oracle/model/guild"
)

// Verify recomputes the root from leaf and the proof and compares it with
// root. It has no side effects.
//
// The leaf index selects, level by level, whether the running hash is the
// left or the right child, so a proof only verifies at the position it was
// generated for. Proofs whose index or length cannot belong to a tree of
// leafCount leaves are rejected with a MalformedProofError; a well-formed
// proof that does not lead to root yields (false, nil).
func Verify(proof guild.MerkleProof, root guild.Hash, leafCount uint64, leaf []byte) (bool, error) {
	if leafCount == 0 {
		return false, NewMalformedProofErrorf("empty tree has no members")
	}
	if proof.LeafIndex >= leafCount {
		return false, NewMalformedProofErrorf("leaf index %d out of range for %d leaves", proof.LeafIndex, leafCount)
	}
	depth := Depth(leafCount)
	if len(proof.Siblings) != depth {
		return false, NewMalformedProofErrorf("expected %d siblings for %d leaves, got %d", depth, leafCount, len(proof.Siblings))
	}

	current := HashLeaf(leaf)
	pos := proof.LeafIndex
	size := leafCount
	for _, sibling := range proof.Siblings {
		if pos%2 == 0 {
			if pos == size-1 && sibling != current {
				// the last node of an odd level can only be paired with itself
				return false, nil
			}
			current = HashNode(current, sibling)
		} else {
			current = HashNode(sibling, current)
		}
		pos /= 2
		size = size/2 + size%2
	}

	return current == root, nil
}
