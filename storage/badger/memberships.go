package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Memberships implements storage.Memberships. Membership checks are key
// lookups and are not cached.
type Memberships struct {
	db *badger.DB
}

var _ storage.Memberships = (*Memberships)(nil)

func NewMemberships(db *badger.DB) *Memberships {
	return &Memberships{db: db}
}

func (m *Memberships) GrantTx(membership guild.Membership) func(*transaction.Tx) error {
	return transaction.WithTx(operation.SkipDuplicates(operation.InsertMembership(&membership)))
}

func (m *Memberships) RevokeTx(membership guild.Membership) func(*transaction.Tx) error {
	return transaction.WithTx(operation.RemoveMembership(membership.Guild, membership.Role, membership.Account))
}

func (m *Memberships) IsMember(membership guild.Membership) (bool, error) {
	var found bool
	err := m.db.View(operation.MembershipExists(membership.Guild, membership.Role, membership.Account, &found))
	if err != nil {
		return false, fmt.Errorf("could not check membership: %w", err)
	}
	return found, nil
}

func (m *Memberships) Members(g guild.Name, role guild.Name, after guild.AccountID, limit uint) ([]guild.AccountID, error) {
	var members []guild.AccountID
	err := m.db.View(operation.LookupMembers(g, role, after, limit, &members))
	if err != nil {
		return nil, fmt.Errorf("could not list members: %w", err)
	}
	return members, nil
}
