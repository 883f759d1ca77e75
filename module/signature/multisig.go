package signature

import (
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/guildnet/guild-oracle/model/guild"
)

// Scheme tags the curve and encoding of a MultiSignature.
type Scheme uint8

const (
	// SchemeEd25519 is a plain Ed25519 signature; the signer is the 32-byte
	// public key.
	SchemeEd25519 Scheme = iota + 1
	// SchemeSchnorr is a BIP-340 Schnorr signature over secp256k1 of the
	// keccak-256 digest of the message; the signer is the 32-byte x-only
	// public key.
	SchemeSchnorr
	// SchemeEcdsa is a 65-byte recoverable secp256k1 signature over the
	// Ethereum signed-message digest; the signer is the 20-byte address
	// derived from the recovered key.
	SchemeEcdsa
)

const (
	Ed25519SignatureLength = ed25519.SignatureSize
	SchnorrSignatureLength = schnorr.SignatureSize
	EcdsaSignatureLength   = crypto.SignatureLength
)

func (s Scheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSchnorr:
		return "schnorr"
	case SchemeEcdsa:
		return "ecdsa"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// MultiSignature is a signature of any supported scheme.
type MultiSignature struct {
	Scheme Scheme
	Bytes  []byte
}

func Ed25519Signature(sig []byte) MultiSignature {
	return MultiSignature{Scheme: SchemeEd25519, Bytes: sig}
}

func SchnorrSignature(sig []byte) MultiSignature {
	return MultiSignature{Scheme: SchemeSchnorr, Bytes: sig}
}

func EcdsaSignature(sig []byte) MultiSignature {
	return MultiSignature{Scheme: SchemeEcdsa, Bytes: sig}
}

// Verify reports whether sig is a valid signature of message by signer. It
// fails closed: malformed input of any kind yields false.
func Verify(sig MultiSignature, message []byte, signer []byte) bool {
	return VerifyErr(sig, message, signer) == nil
}

// VerifyAccount verifies a signature by a ledger account. EVM-keyed
// accounts are the 20-byte address left-padded with zeroes.
func VerifyAccount(sig MultiSignature, message []byte, account guild.AccountID) error {
	if sig.Scheme != SchemeEcdsa {
		return VerifyErr(sig, message, account.Bytes())
	}
	addr, ok := EvmAddressFromAccount(account)
	if !ok {
		return fmt.Errorf("account %s is not evm keyed: %w", account, ErrInvalidSignature)
	}
	return VerifyErr(sig, message, addr.Bytes())
}

// VerifyErr is Verify returning the reason for rejection. Errors wrap one of
// ErrInvalidFormat, ErrInvalidRecoveryID, ErrInvalidSignature or
// ErrUnsupportedScheme.
func VerifyErr(sig MultiSignature, message []byte, signer []byte) (err error) {
	// the curve libraries are not expected to panic on checked input, but
	// signatures are attacker controlled
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("signature verification panicked (%v): %w", r, ErrInvalidFormat)
		}
	}()

	switch sig.Scheme {
	case SchemeEd25519:
		return verifyEd25519(sig.Bytes, message, signer)
	case SchemeSchnorr:
		return verifySchnorr(sig.Bytes, message, signer)
	case SchemeEcdsa:
		return verifyEcdsa(sig.Bytes, message, signer)
	default:
		return fmt.Errorf("scheme %d: %w", sig.Scheme, ErrUnsupportedScheme)
	}
}

func verifyEd25519(sig, message, signer []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("ed25519 signature must be %d bytes, got %d: %w", ed25519.SignatureSize, len(sig), ErrInvalidFormat)
	}
	if len(signer) != ed25519.PublicKeySize {
		return fmt.Errorf("ed25519 public key must be %d bytes, got %d: %w", ed25519.PublicKeySize, len(signer), ErrInvalidFormat)
	}
	if !ed25519.Verify(ed25519.PublicKey(signer), message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

func verifySchnorr(sig, message, signer []byte) error {
	if len(sig) != schnorr.SignatureSize {
		return fmt.Errorf("schnorr signature must be %d bytes, got %d: %w", schnorr.SignatureSize, len(sig), ErrInvalidFormat)
	}
	pub, err := schnorr.ParsePubKey(signer)
	if err != nil {
		return fmt.Errorf("could not parse schnorr public key: %v: %w", err, ErrInvalidFormat)
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return fmt.Errorf("could not parse schnorr signature: %v: %w", err, ErrInvalidFormat)
	}
	if !parsed.Verify(crypto.Keccak256(message), pub) {
		return ErrInvalidSignature
	}
	return nil
}

// EvmMessageHash is the Ethereum signed-message digest of message:
// keccak256("\x19Ethereum Signed Message:\n" + len(message) + message).
func EvmMessageHash(message []byte) []byte {
	return accounts.TextHash(message)
}

func verifyEcdsa(sig, message, signer []byte) error {
	addr, err := RecoverEvmAddress(sig, message)
	if err != nil {
		return err
	}
	if len(signer) != guild.EvmAddressLength {
		return fmt.Errorf("evm address must be %d bytes, got %d: %w", guild.EvmAddressLength, len(signer), ErrInvalidFormat)
	}
	if addr != guild.EvmAddress(signer) {
		return ErrInvalidSignature
	}
	return nil
}

// RecoverEvmAddress recovers the address that produced the 65-byte
// recoverable signature [R || S || V] over the Ethereum signed-message
// digest of message. V may be 0/1 or 27/28.
func RecoverEvmAddress(sig, message []byte) (guild.EvmAddress, error) {
	if len(sig) != crypto.SignatureLength {
		return guild.EvmAddress{}, fmt.Errorf("ecdsa signature must be %d bytes, got %d: %w", crypto.SignatureLength, len(sig), ErrInvalidFormat)
	}

	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	v := normalized[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return guild.EvmAddress{}, fmt.Errorf("recovery id %d: %w", sig[crypto.RecoveryIDOffset], ErrInvalidRecoveryID)
	}
	normalized[crypto.RecoveryIDOffset] = v

	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return guild.EvmAddress{}, fmt.Errorf("signature values out of range: %w", ErrInvalidFormat)
	}

	pub, err := crypto.SigToPub(EvmMessageHash(message), normalized)
	if err != nil {
		return guild.EvmAddress{}, fmt.Errorf("could not recover public key: %v: %w", err, ErrInvalidSignature)
	}
	return guild.EvmAddress(crypto.PubkeyToAddress(*pub)), nil
}

// AccountFromEvmAddress maps an EVM address to the ledger account it
// controls.
func AccountFromEvmAddress(addr guild.EvmAddress) guild.AccountID {
	var account guild.AccountID
	copy(account[guild.AccountIDLength-guild.EvmAddressLength:], addr[:])
	return account
}

// EvmAddressFromAccount is the inverse of AccountFromEvmAddress. It returns
// false for accounts that are not zero-padded addresses.
func EvmAddressFromAccount(account guild.AccountID) (guild.EvmAddress, bool) {
	for _, b := range account[:guild.AccountIDLength-guild.EvmAddressLength] {
		if b != 0 {
			return guild.EvmAddress{}, false
		}
	}
	var addr guild.EvmAddress
	copy(addr[:], account[guild.AccountIDLength-guild.EvmAddressLength:])
	return addr, true
}
