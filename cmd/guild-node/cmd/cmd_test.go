package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module/merkle"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/state/chain"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

func execute(t *testing.T, args ...string) string {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeAllowlist(t *testing.T, dir string, addrs []guild.EvmAddress) string {
	var b strings.Builder
	b.WriteString("# test list\n\n")
	for _, addr := range addrs {
		b.WriteString(addr.String())
		b.WriteString("\n")
	}
	path := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestAllowlistCommands(t *testing.T) {
	dir := unittest.TempDir(t)
	defer os.RemoveAll(dir)
	fix := unittest.FixturesFor(t)
	addrs := fix.EvmAddresses(5)
	path := writeAllowlist(t, dir, addrs)

	list, err := readAllowlist(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), list.LeafCount())

	out := execute(t, "allowlist", "root", "--file", path)
	assert.Contains(t, out, list.Root().String())
	assert.Contains(t, out, "entries: 5")

	out = execute(t, "allowlist", "proof", "--file", path, "--address", addrs[3].String())
	var proof guild.AllowlistProof
	require.NoError(t, json.Unmarshal([]byte(out), &proof))
	assert.Equal(t, list.Root(), proof.Root)
	assert.Equal(t, uint64(3), proof.Proof.LeafIndex)

	ok, err := merkle.Verify(proof.Proof, proof.Root, list.LeafCount(), addrs[3].Bytes())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadAllowlistRejectsDuplicates(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		fix := unittest.FixturesFor(t)
		addr := fix.EvmAddress()
		path := writeAllowlist(t, dir, []guild.EvmAddress{addr, fix.EvmAddress(), addr})

		_, err := readAllowlist(path)
		assert.Error(t, err)
	})
}

func TestNewSigner(t *testing.T) {
	seed := unittest.FixturesFor(t).Bytes(32)
	accounts := make(map[guild.AccountID]string)
	for _, scheme := range []string{schemeEd25519, schemeSchnorr, schemeEvm} {
		signer, err := newSigner(scheme, seed)
		require.NoError(t, err, scheme)
		again, err := newSigner(scheme, seed)
		require.NoError(t, err)
		assert.Equal(t, signer.Account(), again.Account(), "accounts are derived deterministically")
		accounts[signer.Account()] = scheme
	}
	assert.Len(t, accounts, 3)

	_, err := newSigner("rsa", seed)
	assert.Error(t, err)
}

func TestOperatorSeeds(t *testing.T) {
	seed := unittest.FixturesFor(t).Bytes(32)
	seeds, err := operatorSeeds([]string{hex.EncodeToString(seed)}, 3)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, seed, seeds[0])

	seeds, err = operatorSeeds(nil, 3)
	require.NoError(t, err)
	assert.Len(t, seeds, 3)

	_, err = operatorSeeds([]string{"zz"}, 0)
	assert.Error(t, err)
}

func TestEnsureActive(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		ledger, err := chain.New(unittest.Logger(), metrics.NewNoopCollector(), metrics.NewNoopCollector(), db, fix.AccountID(), chain.DefaultConfig())
		require.NoError(t, err)

		signer, err := newSigner(schemeEd25519, fix.Bytes(32))
		require.NoError(t, err)

		require.NoError(t, ensureActive(ledger, signer))
		// a restarted node finds the operator already active
		require.NoError(t, ensureActive(ledger, signer))

		require.NoError(t, ledger.DeactivateOperator(signer.Account()))
		require.NoError(t, ensureActive(ledger, signer))

		active, err := ledger.ActiveOperators()
		require.NoError(t, err)
		assert.Equal(t, []guild.AccountID{signer.Account()}, active)
	})
}
