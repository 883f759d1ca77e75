package cbor_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/model/encoding"
	"github.com/guildnet/guild-oracle/model/encoding/cbor"
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

func TestJoinPayloadRoundTrip(t *testing.T) {
	fix := unittest.FixturesFor(t)
	enc := cbor.NewEncoder()

	payload := guild.JoinPayload{
		Guild: fix.Name("guild"),
		Role:  fix.Name("role"),
		Proofs: []guild.AllowlistProof{{
			Root:  fix.Hash(),
			Proof: guild.MerkleProof{Siblings: []guild.Hash{fix.Hash(), fix.Hash()}, LeafIndex: 3},
		}},
	}
	data, err := enc.Encode(payload)
	require.NoError(t, err)

	var decoded guild.JoinPayload
	require.NoError(t, enc.Decode(data, &decoded))
	assert.Equal(t, payload, decoded)

	// deterministic
	again := enc.MustEncode(payload)
	assert.Equal(t, data, again)
}

func TestRequirementRoundTrip(t *testing.T) {
	enc := cbor.NewEncoder()
	req := guild.Balance(guild.ChainEthereum, guild.NativeToken(), guild.Between(uint256.NewInt(5), uint256.NewInt(10)))

	var decoded guild.Requirement
	enc.MustDecode(enc.MustEncode(req), &decoded)
	assert.Equal(t, req, decoded)
}

func TestDecodeGarbage(t *testing.T) {
	enc := cbor.NewEncoder()

	var payload guild.RegisterPayload
	err := enc.Decode([]byte{0xff, 0x00, 0x13}, &payload)
	require.Error(t, err)
	assert.True(t, encoding.IsDecodeError(err))
	assert.ErrorIs(t, err, encoding.ErrInvalidEncoding)

	// unknown fields are rejected
	data := enc.MustEncode(map[string]int{"Unexpected": 1})
	err = enc.Decode(data, &payload)
	assert.True(t, encoding.IsDecodeError(err))
}
