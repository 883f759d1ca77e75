package operation

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

func TestGuildRoundTrip(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		_, allowlist := unittest.AllowlistFixture(fix.EvmAddresses(3), guild.LogicOr)
		expected := &guild.Guild{
			Name:     fix.Name("guild"),
			Owner:    fix.AccountID(),
			Metadata: []byte("metadata"),
			Roles: []guild.Role{
				unittest.RoleFixture(fix.Name("role"), guild.LogicAnd,
					unittest.NativeBalanceFixture(guild.Between(uint256.NewInt(1), uint256.NewInt(100))),
					allowlist,
				),
			},
		}

		require.NoError(t, db.Update(InsertGuild(expected)))

		var found bool
		require.NoError(t, db.View(GuildExists(expected.Name, &found)))
		assert.True(t, found)

		var actual guild.Guild
		require.NoError(t, db.View(RetrieveGuild(expected.Name, &actual)))
		assert.Equal(t, expected, &actual)
	})
}

func TestIdentitiesRoundTrip(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		account := fix.AccountID()
		expected, err := guild.NewIdentityMap(guild.EvmChainIdentity(fix.EvmAddress()), guild.TelegramIdentity(99))
		require.NoError(t, err)

		require.NoError(t, db.Update(UpsertIdentities(account, &expected)))
		var actual guild.IdentityMap
		require.NoError(t, db.View(RetrieveIdentities(account, &actual)))
		assert.Equal(t, expected, actual)
	})
}

func TestMembersPagination(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		g, role := fix.Name("guild"), fix.Name("role")
		other := fix.Name("other")

		accounts := make([]guild.AccountID, 5)
		for i := range accounts {
			accounts[i] = guild.AccountID{byte(i + 1)}
			require.NoError(t, db.Update(InsertMembership(&guild.Membership{Guild: g, Role: role, Account: accounts[i]})))
		}
		require.NoError(t, db.Update(InsertMembership(&guild.Membership{Guild: g, Role: other, Account: fix.AccountID()})))

		var members []guild.AccountID
		require.NoError(t, db.View(LookupMembers(g, role, guild.ZeroAccount, 2, &members)))
		assert.Equal(t, accounts[:2], members)

		require.NoError(t, db.View(LookupMembers(g, role, members[1], 0, &members)))
		assert.Equal(t, accounts[2:], members)

		var found bool
		require.NoError(t, db.View(MembershipExists(g, role, accounts[4], &found)))
		assert.True(t, found)
		require.NoError(t, db.Update(RemoveMembership(g, role, accounts[4])))
		require.NoError(t, db.View(MembershipExists(g, role, accounts[4], &found)))
		assert.False(t, found)
	})
}

func TestCodecRejectsUncompressed(t *testing.T) {
	var v uint64
	err := decodeValue([]byte{0xff, 0xff, 0xff}, &v)
	assert.True(t, isErrUncompressedValue(err))
}
