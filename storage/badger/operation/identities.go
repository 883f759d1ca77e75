package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
)

// UpsertIdentities replaces the identity map of an account.
func UpsertIdentities(account guild.AccountID, ids *guild.IdentityMap) func(*badger.Txn) error {
	return upsert(makePrefix(codeIdentities, account), ids)
}

func RetrieveIdentities(account guild.AccountID, ids *guild.IdentityMap) func(*badger.Txn) error {
	return retrieve(makePrefix(codeIdentities, account), ids)
}

func RemoveIdentities(account guild.AccountID) func(*badger.Txn) error {
	return remove(makePrefix(codeIdentities, account))
}
