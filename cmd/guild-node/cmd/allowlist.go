package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/allowlist"
)

var (
	flagAllowlistFile string
	flagAddress       string
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Commit to allowlists and build membership proofs",
}

var allowlistRootCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the Merkle root committing to an allowlist file",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := readAllowlist(flagAllowlistFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "root:    %s\n", list.Root())
		fmt.Fprintf(out, "entries: %d\n", list.LeafCount())
		return nil
	},
}

var allowlistProofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Print the membership proof of an address as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := readAllowlist(flagAllowlistFile)
		if err != nil {
			return err
		}
		addr, err := guild.HexToEvmAddress(flagAddress)
		if err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}
		proof, err := list.AllowlistProof(addr)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(proof)
	},
}

func init() {
	rootCmd.AddCommand(allowlistCmd)
	allowlistCmd.AddCommand(allowlistRootCmd, allowlistProofCmd)

	allowlistCmd.PersistentFlags().StringVarP(&flagAllowlistFile, "file", "f", "", "file with one hex address per line")
	_ = allowlistCmd.MarkPersistentFlagRequired("file")
	allowlistProofCmd.Flags().StringVarP(&flagAddress, "address", "a", "", "hex address to prove")
	_ = allowlistProofCmd.MarkFlagRequired("address")
}

func readAllowlist(path string) (*allowlist.Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open allowlist: %w", err)
	}
	defer f.Close()

	addrs, err := allowlist.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse allowlist %s: %w", path, err)
	}
	list, err := allowlist.New(addrs)
	if err != nil {
		return nil, fmt.Errorf("could not build allowlist %s: %w", path, err)
	}
	return list, nil
}
