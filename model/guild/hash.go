package guild

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// HashLength is the size of a Hash in bytes.
const HashLength = 32

// Hash is a keccak-256 digest. It is used for Merkle roots and allowlist
// commitments.
type Hash [HashLength]byte

// ZeroHash is the empty hash.
var ZeroHash = Hash{}

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) Hash {
	return Hash(crypto.Keccak256Hash(data...))
}

// HexToHash parses a hex string (with or without 0x prefix) into a Hash.
func HexToHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return h, fmt.Errorf("could not decode hash: %w", err)
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("invalid hash length: expected %d, got %d", HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
