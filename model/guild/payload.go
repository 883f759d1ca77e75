package guild

// MerkleProof is the sibling path from a leaf to the root, ordered
// bottom-up, together with the position of the leaf.
type MerkleProof struct {
	Siblings  []Hash
	LeafIndex uint64
}

// AllowlistProof binds a Merkle proof to the allowlist root it proves
// membership in.
type AllowlistProof struct {
	Root  Hash
	Proof MerkleProof
}

// RegisterPayload asks the oracle to verify and link identities.
type RegisterPayload struct {
	Identities []IdentityWithAuth
}

// JoinPayload asks the oracle to evaluate a role's requirements for the
// requester. Proofs are optional; operators compute missing proofs from
// the allowlists they hold.
type JoinPayload struct {
	Guild  Name
	Role   Name
	Proofs []AllowlistProof
}

// CallbackResult is the answer operators give to register and join
// requests.
type CallbackResult struct {
	Result bool
}
