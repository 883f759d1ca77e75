package badger

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

const IdentitiesCacheSize = 1000

// Identities implements storage.Identities with a read cache.
type Identities struct {
	db    *badger.DB
	cache *Cache[guild.AccountID, guild.IdentityMap]
}

var _ storage.Identities = (*Identities)(nil)

func NewIdentities(collector module.CacheMetrics, db *badger.DB) *Identities {
	store := func(account guild.AccountID, ids guild.IdentityMap) func(*badger.Txn) error {
		return operation.UpsertIdentities(account, &ids)
	}

	retrieve := func(account guild.AccountID) func(*badger.Txn) (guild.IdentityMap, error) {
		return func(tx *badger.Txn) (guild.IdentityMap, error) {
			var ids guild.IdentityMap
			err := operation.RetrieveIdentities(account, &ids)(tx)
			return ids, err
		}
	}

	return &Identities{
		db: db,
		cache: newCache[guild.AccountID, guild.IdentityMap](collector, metrics.ResourceIdentities,
			withLimit[guild.AccountID, guild.IdentityMap](IdentitiesCacheSize),
			withStore(store),
			withRetrieve(retrieve)),
	}
}

func (i *Identities) StoreTx(account guild.AccountID, ids guild.IdentityMap) func(*transaction.Tx) error {
	return i.cache.PutTx(account, cloneIdentities(ids))
}

func (i *Identities) RemoveTx(account guild.AccountID) func(*transaction.Tx) error {
	return i.cache.RemoveTx(account, operation.RemoveIdentities(account))
}

func (i *Identities) ByAccountTx(account guild.AccountID) func(*transaction.Tx) (guild.IdentityMap, error) {
	return func(tx *transaction.Tx) (guild.IdentityMap, error) {
		var ids guild.IdentityMap
		err := operation.RetrieveIdentities(account, &ids)(tx.DBTxn)
		return ids, err
	}
}

func (i *Identities) ByAccount(account guild.AccountID) (guild.IdentityMap, error) {
	tx := i.db.NewTransaction(false)
	defer tx.Discard()
	ids, err := i.cache.Get(account)(tx)
	if err != nil {
		return guild.IdentityMap{}, err
	}
	return cloneIdentities(ids), nil
}

func cloneIdentities(ids guild.IdentityMap) guild.IdentityMap {
	return guild.IdentityMap{Entries: append([]guild.Identity(nil), ids.Entries...)}
}
