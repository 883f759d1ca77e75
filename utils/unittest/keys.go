package unittest

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/signature"
)

// Ed25519Signer returns a signer with a fixture key.
func (f *Fixtures) Ed25519Signer() *signature.Ed25519Signer {
	signer, err := signature.NewEd25519Signer(f.Bytes(32))
	if err != nil {
		panic(fmt.Sprintf("could not create ed25519 signer: %v", err))
	}
	return signer
}

// SchnorrSigner returns a signer with a fixture key.
func (f *Fixtures) SchnorrSigner() *signature.SchnorrSigner {
	signer, err := signature.NewSchnorrSigner(f.secp256k1Secret())
	if err != nil {
		panic(fmt.Sprintf("could not create schnorr signer: %v", err))
	}
	return signer
}

// EvmSigner returns a wallet-style signer with a fixture key.
func (f *Fixtures) EvmSigner() *signature.EvmSigner {
	signer, err := signature.NewEvmSigner(f.secp256k1Secret())
	if err != nil {
		panic(fmt.Sprintf("could not create evm signer: %v", err))
	}
	return signer
}

// secp256k1Secret draws until the bytes form a valid scalar.
func (f *Fixtures) secp256k1Secret() []byte {
	for {
		secret := f.Bytes(32)
		if _, err := crypto.ToECDSA(secret); err == nil {
			return secret
		}
	}
}

// EvmIdentityWithAuth returns the identity of signer together with the
// proof linking it to account.
func EvmIdentityWithAuth(signer *signature.EvmSigner, account guild.AccountID) guild.IdentityWithAuth {
	sig, err := signer.Sign(signature.CanonicalIdentityMessage(account))
	if err != nil {
		panic(fmt.Sprintf("could not sign identity message: %v", err))
	}
	return guild.IdentityWithAuth{
		Identity:  guild.EvmChainIdentity(signer.Address()),
		Signature: sig.Bytes,
	}
}
