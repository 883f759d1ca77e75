package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guildnet/guild-oracle/module/signature"
)

const (
	schemeEd25519 = "ed25519"
	schemeSchnorr = "schnorr"
	schemeEvm     = "evm"
)

var flagScheme string

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate a signing key and print its seed and account",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := randomSeed()
		if err != nil {
			return err
		}
		signer, err := newSigner(flagScheme, seed)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scheme:  %s\n", flagScheme)
		fmt.Fprintf(out, "seed:    %s\n", hex.EncodeToString(seed))
		fmt.Fprintf(out, "account: %s\n", signer.Account())
		if evm, ok := signer.(*signature.EvmSigner); ok {
			fmt.Fprintf(out, "address: %s\n", evm.Address())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().StringVar(&flagScheme, "scheme", schemeEd25519, "signature scheme (ed25519, schnorr, evm)")
}

// newSigner loads a signer of the given scheme from a 32-byte seed.
func newSigner(scheme string, seed []byte) (signature.Signer, error) {
	switch scheme {
	case schemeEd25519:
		return signature.NewEd25519Signer(seed)
	case schemeSchnorr:
		return signature.NewSchnorrSigner(seed)
	case schemeEvm:
		return signature.NewEvmSigner(seed)
	default:
		return nil, fmt.Errorf("unknown signature scheme %q", scheme)
	}
}

func randomSeed() ([]byte, error) {
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	if err != nil {
		return nil, fmt.Errorf("could not generate seed: %w", err)
	}
	return seed, nil
}
