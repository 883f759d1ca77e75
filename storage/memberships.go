package storage

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Memberships persists role memberships.
type Memberships interface {

	// GrantTx records membership. Granting twice is a no-op.
	GrantTx(m guild.Membership) func(*transaction.Tx) error

	// RevokeTx removes membership.
	// Expected errors: ErrNotFound.
	RevokeTx(m guild.Membership) func(*transaction.Tx) error

	IsMember(m guild.Membership) (bool, error)

	// Members lists accounts holding role in g, ordered by account, starting
	// after the given account (ZeroAccount for the first page). A limit of
	// zero lists all.
	Members(g guild.Name, role guild.Name, after guild.AccountID, limit uint) ([]guild.AccountID, error)
}
