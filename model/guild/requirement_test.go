package guild_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/model/guild"
)

func TestRequirementValidate(t *testing.T) {
	contract := guild.EvmAddress{0x01}
	valid := []guild.Requirement{
		guild.Free(),
		guild.Balance(guild.ChainEthereum, guild.NativeToken(), guild.GreaterThan(uint256.NewInt(0))),
		guild.Balance(guild.ChainPolygon, guild.FungibleToken(contract), guild.GreaterOrEqualTo(uint256.NewInt(100))),
		guild.Balance(guild.ChainBsc, guild.NonFungibleToken(contract, uint256.NewInt(7)), guild.EqualTo(uint256.NewInt(1))),
		guild.Allowlist(guild.Hash{1}, guild.LogicAnd, 4),
	}
	for _, req := range valid {
		assert.NoError(t, req.Validate(), req.Kind.String())
	}

	invalid := []guild.Requirement{
		{Kind: 0},
		{Kind: guild.RequirementFree, Allowlist: &guild.AllowlistRequirement{}},
		{Kind: guild.RequirementBalance},
		guild.Balance(0, guild.NativeToken(), guild.GreaterThan(uint256.NewInt(0))),
		guild.Balance(guild.ChainEthereum, guild.TokenType{Kind: guild.TokenNative, Contract: contract}, guild.GreaterThan(uint256.NewInt(0))),
		guild.Balance(guild.ChainEthereum, guild.NativeToken(), guild.Relation{}),
		guild.Allowlist(guild.Hash{1}, 0, 4),
		guild.Allowlist(guild.Hash{1}, guild.LogicOr, 0),
	}
	for i, req := range invalid {
		assert.Error(t, req.Validate(), "case %d", i)
	}
}

func TestRequirementsWithLogicValidate(t *testing.T) {
	err := guild.RequirementsWithLogic{Logic: guild.LogicAnd}.Validate()
	require.ErrorIs(t, err, guild.ErrNoRequirements)

	err = guild.RequirementsWithLogic{Requirements: []guild.Requirement{guild.Free()}}.Validate()
	require.Error(t, err)

	err = guild.RequirementsWithLogic{
		Requirements: []guild.Requirement{guild.Free(), guild.Free()},
		Logic:        guild.LogicOr,
	}.Validate()
	require.NoError(t, err)
}

func TestLogicApply(t *testing.T) {
	assert.True(t, guild.LogicAnd.Apply(true, true))
	assert.False(t, guild.LogicAnd.Apply(true, false))
	assert.True(t, guild.LogicOr.Apply(false, true))
	assert.False(t, guild.LogicOr.Apply(false, false))
}

func TestName(t *testing.T) {
	n, err := guild.NewName("myguild")
	require.NoError(t, err)
	assert.Equal(t, "myguild", n.String())

	_, err = guild.NewName("")
	assert.Error(t, err)
	_, err = guild.NewName("0123456789abcdef0123456789abcdef0")
	assert.Error(t, err)
	_, err = guild.NewName("a\x00b")
	assert.Error(t, err)
}

func TestRequestStatusAt(t *testing.T) {
	req := guild.Request{Status: guild.RequestPending, CreatedAt: 5, ExpiresAt: 15}
	assert.Equal(t, guild.RequestPending, req.StatusAt(14))
	assert.Equal(t, guild.RequestExpired, req.StatusAt(15))

	req.Status = guild.RequestAnswered
	assert.Equal(t, guild.RequestAnswered, req.StatusAt(100))
}
