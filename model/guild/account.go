package guild

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AccountIDLength is the size of a ledger account identifier.
const AccountIDLength = 32

// AccountID identifies a ledger account. For native accounts it holds the
// account's 32-byte public key (Ed25519 or x-only secp256k1).
type AccountID [AccountIDLength]byte

// ZeroAccount is the account that no one owns.
var ZeroAccount = AccountID{}

// HexToAccountID parses a hex string (with or without 0x prefix).
func HexToAccountID(s string) (AccountID, error) {
	var id AccountID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("could not decode account id: %w", err)
	}
	if len(b) != AccountIDLength {
		return id, fmt.Errorf("invalid account id length: expected %d, got %d", AccountIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// BytesToAccountID copies b into an AccountID. It returns an error when b
// has the wrong length.
func BytesToAccountID(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLength {
		return id, fmt.Errorf("invalid account id length: expected %d, got %d", AccountIDLength, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (a AccountID) Bytes() []byte { return a[:] }

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	parsed, err := HexToAccountID(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// EvmAddressLength is the size of an EVM account address.
const EvmAddressLength = 20

// EvmAddress is a 20-byte EVM account address.
type EvmAddress [EvmAddressLength]byte

// HexToEvmAddress parses a 0x-prefixed hex address. Checksums are not
// enforced.
func HexToEvmAddress(s string) (EvmAddress, error) {
	if !common.IsHexAddress(s) {
		return EvmAddress{}, fmt.Errorf("invalid evm address: %q", s)
	}
	return EvmAddress(common.HexToAddress(s)), nil
}

// Bytes returns the canonical byte serialization of the address. This is
// also the allowlist leaf encoding; changing it invalidates every
// committed allowlist root.
func (a EvmAddress) Bytes() []byte { return a[:] }

// String returns the EIP-55 checksummed hex representation.
func (a EvmAddress) String() string {
	return common.Address(a).Hex()
}

func (a EvmAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *EvmAddress) UnmarshalText(text []byte) error {
	parsed, err := HexToEvmAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
