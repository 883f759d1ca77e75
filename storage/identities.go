package storage

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Identities persists the identity map linked to each account.
type Identities interface {

	// StoreTx replaces the identity map of account.
	StoreTx(account guild.AccountID, ids guild.IdentityMap) func(*transaction.Tx) error

	// RemoveTx deletes every identity of account.
	RemoveTx(account guild.AccountID) func(*transaction.Tx) error

	ByAccountTx(account guild.AccountID) func(*transaction.Tx) (guild.IdentityMap, error)

	// ByAccount returns the identities of account.
	// Expected errors: ErrNotFound if the account never registered.
	ByAccount(account guild.AccountID) (guild.IdentityMap, error)
}
