package operation

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/utils/unittest"
)

func TestRequestInsertRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		expected := fix.RequestFixture(7, fix.AccountID())

		require.NoError(t, db.Update(InsertRequest(expected)))
		err := db.Update(InsertRequest(expected))
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		var actual guild.Request
		require.NoError(t, db.View(RetrieveRequest(7, &actual)))
		assert.Equal(t, expected, &actual)

		expected.Status = guild.RequestAnswered
		expected.Answer = []byte{1, 2, 3}
		require.NoError(t, db.Update(UpdateRequest(expected)))
		require.NoError(t, db.View(RetrieveRequest(7, &actual)))
		assert.Equal(t, expected, &actual)

		err = db.View(RetrieveRequest(8, &actual))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestPendingIndexes(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		alice := fix.AccountID()
		bob := fix.AccountID()

		reqs := []*guild.Request{
			fix.RequestFixture(1, alice, unittest.WithRequestWindow(0, 10)),
			fix.RequestFixture(2, bob, unittest.WithRequestWindow(1, 11)),
			fix.RequestFixture(3, alice, unittest.WithRequestWindow(2, 12)),
			fix.RequestFixture(300, alice, unittest.WithRequestWindow(3, 13)),
		}
		for _, req := range reqs {
			require.NoError(t, db.Update(IndexPendingRequest(req)))
		}

		var ids []guild.RequestID
		require.NoError(t, db.View(LookupPendingByOperator(alice, 0, 0, &ids)))
		assert.Equal(t, []guild.RequestID{1, 3, 300}, ids)

		require.NoError(t, db.View(LookupPendingByOperator(alice, 1, 1, &ids)))
		assert.Equal(t, []guild.RequestID{3}, ids)

		require.NoError(t, db.View(LookupPendingByOperator(alice, 3, 0, &ids)))
		assert.Equal(t, []guild.RequestID{300}, ids)

		require.NoError(t, db.View(LookupPendingByOperator(bob, 0, 0, &ids)))
		assert.Equal(t, []guild.RequestID{2}, ids)

		require.NoError(t, db.View(LookupExpiredBefore(11, 0, &ids)))
		assert.Equal(t, []guild.RequestID{1, 2}, ids)

		require.NoError(t, db.View(LookupExpiredBefore(100, 3, &ids)))
		assert.Equal(t, []guild.RequestID{1, 2, 3}, ids)

		require.NoError(t, db.Update(UnindexPendingRequest(reqs[1])))
		require.NoError(t, db.View(LookupPendingByOperator(bob, 0, 0, &ids)))
		assert.Empty(t, ids)
		require.NoError(t, db.View(LookupExpiredBefore(11, 0, &ids)))
		assert.Equal(t, []guild.RequestID{1}, ids)
	})
}

// An unexpired request following expired ones ends the lookup without
// discarding what was collected.
func TestLookupExpiredStopsAtFirstLiveRequest(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		operator := fix.AccountID()
		for i, expiry := range []uint64{11, 12, 15, 20} {
			req := fix.RequestFixture(guild.RequestID(i+1), operator, unittest.WithRequestWindow(1, expiry))
			require.NoError(t, db.Update(IndexPendingRequest(req)))
		}

		var ids []guild.RequestID
		require.NoError(t, db.View(LookupExpiredBefore(12, 0, &ids)))
		assert.Equal(t, []guild.RequestID{1, 2}, ids)

		require.NoError(t, db.View(LookupExpiredBefore(10, 0, &ids)))
		assert.Empty(t, ids)

		require.NoError(t, db.View(LookupExpiredBefore(15, 2, &ids)))
		assert.Equal(t, []guild.RequestID{1, 2}, ids)

		require.NoError(t, db.View(LookupExpiredBefore(100, 0, &ids)))
		assert.Equal(t, []guild.RequestID{1, 2, 3, 4}, ids)
	})
}

func TestActiveOperatorsAndCounters(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)

		var active []guild.AccountID
		require.NoError(t, db.View(RetrieveActiveOperators(&active)))
		assert.Empty(t, active)

		expected := []guild.AccountID{fix.AccountID(), fix.AccountID()}
		require.NoError(t, db.Update(UpsertActiveOperators(expected)))
		require.NoError(t, db.View(RetrieveActiveOperators(&active)))
		assert.Equal(t, expected, active)

		var ptr uint64
		require.NoError(t, db.View(RetrieveRoundRobin(&ptr)))
		assert.Zero(t, ptr)
		require.NoError(t, db.Update(UpsertRoundRobin(5)))
		require.NoError(t, db.View(RetrieveRoundRobin(&ptr)))
		assert.EqualValues(t, 5, ptr)

		var next uint64
		assert.ErrorIs(t, db.View(RetrieveRequestCounter(&next)), storage.ErrNotFound)
		require.NoError(t, db.Update(InitRequestCounter(1)))
		require.NoError(t, db.Update(UpdateRequestCounter(2)))
		require.NoError(t, db.View(RetrieveRequestCounter(&next)))
		assert.EqualValues(t, 2, next)
	})
}

func TestOperators(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		fix := unittest.FixturesFor(t)
		op := &guild.Operator{Account: fix.AccountID(), Status: guild.OperatorRegistered, RegisteredAt: 4}

		require.NoError(t, db.Update(InsertOperator(op)))
		var ops []*guild.Operator
		require.NoError(t, db.View(TraverseOperators(&ops)))
		require.Len(t, ops, 1)
		assert.Equal(t, op, ops[0])

		require.NoError(t, db.Update(RemoveOperator(op.Account)))
		assert.ErrorIs(t, db.Update(RemoveOperator(op.Account)), storage.ErrNotFound)
	})
}
