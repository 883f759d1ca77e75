package signature

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/guildnet/guild-oracle/model/guild"
)

// Signer signs messages on behalf of a ledger account.
type Signer interface {
	// Account returns the ledger account the signer controls.
	Account() guild.AccountID
	// Sign signs message with the signer's scheme.
	Sign(message []byte) (MultiSignature, error)
}

// Ed25519Signer signs with an Ed25519 key; its account is the public key.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

var _ Signer = (*Ed25519Signer)(nil)

// NewEd25519Signer derives the key from a 32-byte seed.
func NewEd25519Signer(seed []byte) (*Ed25519Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *Ed25519Signer) Account() guild.AccountID {
	var account guild.AccountID
	copy(account[:], s.key.Public().(ed25519.PublicKey))
	return account
}

func (s *Ed25519Signer) Sign(message []byte) (MultiSignature, error) {
	return Ed25519Signature(ed25519.Sign(s.key, message)), nil
}

// SchnorrSigner signs BIP-340 Schnorr signatures over secp256k1; its account
// is the x-only public key.
type SchnorrSigner struct {
	key *btcec.PrivateKey
}

var _ Signer = (*SchnorrSigner)(nil)

// NewSchnorrSigner builds a signer from a 32-byte secret scalar.
func NewSchnorrSigner(secret []byte) (*SchnorrSigner, error) {
	if len(secret) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("secp256k1 secret must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(secret))
	}
	key, _ := btcec.PrivKeyFromBytes(secret)
	return &SchnorrSigner{key: key}, nil
}

func (s *SchnorrSigner) Account() guild.AccountID {
	var account guild.AccountID
	copy(account[:], schnorr.SerializePubKey(s.key.PubKey()))
	return account
}

func (s *SchnorrSigner) Sign(message []byte) (MultiSignature, error) {
	sig, err := schnorr.Sign(s.key, crypto.Keccak256(message))
	if err != nil {
		return MultiSignature{}, fmt.Errorf("could not sign: %w", err)
	}
	return SchnorrSignature(sig.Serialize()), nil
}

// EvmSigner produces recoverable signatures over the Ethereum signed-message
// digest, as wallets do for personal_sign.
type EvmSigner struct {
	key *ecdsa.PrivateKey
}

var _ Signer = (*EvmSigner)(nil)

// NewEvmSigner builds a signer from a 32-byte secret scalar.
func NewEvmSigner(secret []byte) (*EvmSigner, error) {
	key, err := crypto.ToECDSA(secret)
	if err != nil {
		return nil, fmt.Errorf("could not load secp256k1 key: %w", err)
	}
	return &EvmSigner{key: key}, nil
}

// Address returns the EVM address of the key.
func (s *EvmSigner) Address() guild.EvmAddress {
	return guild.EvmAddress(crypto.PubkeyToAddress(s.key.PublicKey))
}

func (s *EvmSigner) Account() guild.AccountID {
	return AccountFromEvmAddress(s.Address())
}

// Sign returns [R || S || V] with V in {27, 28}.
func (s *EvmSigner) Sign(message []byte) (MultiSignature, error) {
	sig, err := crypto.Sign(EvmMessageHash(message), s.key)
	if err != nil {
		return MultiSignature{}, fmt.Errorf("could not sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return EcdsaSignature(sig), nil
}
