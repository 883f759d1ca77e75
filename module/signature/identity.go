package signature

import (
	"fmt"

	"github.com/guildnet/guild-oracle/model/guild"
)

// IdentityFromAuth checks the proof carried by auth for the given account
// and returns the identity to store. The proof is not retained.
//
// EvmChain identities require a recoverable signature of
// CanonicalIdentityMessage(account) by the claimed address. Off-chain
// platforms are trusted at this layer and must not carry a proof.
func IdentityFromAuth(auth guild.IdentityWithAuth, account guild.AccountID) (guild.Identity, error) {
	err := auth.Identity.Validate()
	if err != nil {
		return guild.Identity{}, fmt.Errorf("invalid identity: %w", err)
	}

	switch auth.Identity.Platform {
	case guild.PlatformEvmChain:
		err = VerifyErr(EcdsaSignature(auth.Signature), CanonicalIdentityMessage(account), auth.Identity.Address.Bytes())
		if err != nil {
			return guild.Identity{}, fmt.Errorf("could not verify ownership of %s: %w", auth.Identity.Address, err)
		}
		return auth.Identity, nil
	case guild.PlatformDiscord, guild.PlatformTelegram:
		if len(auth.Signature) != 0 {
			return guild.Identity{}, fmt.Errorf("%s identity must not carry a proof: %w", auth.Identity.Platform, ErrInvalidFormat)
		}
		return auth.Identity, nil
	default:
		return guild.Identity{}, fmt.Errorf("unsupported platform %d", auth.Identity.Platform)
	}
}

// IsInvalidSignature returns true if err denotes a signature that was well
// formed but did not verify, or one that could not be parsed.
func IsInvalidSignature(err error) bool {
	return errorsIsAny(err, ErrInvalidSignature, ErrInvalidFormat, ErrInvalidRecoveryID, ErrUnsupportedScheme)
}
