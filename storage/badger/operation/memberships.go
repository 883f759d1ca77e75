package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
)

func InsertMembership(m *guild.Membership) func(*badger.Txn) error {
	return insert(makePrefix(codeMembership, m.Guild, m.Role, m.Account), m)
}

func RemoveMembership(g guild.Name, role guild.Name, account guild.AccountID) func(*badger.Txn) error {
	return remove(makePrefix(codeMembership, g, role, account))
}

func MembershipExists(g guild.Name, role guild.Name, account guild.AccountID, found *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeMembership, g, role, account), found)
}

// LookupMembers lists members of a role ordered by account, starting after
// the given account. A zero after starts at the beginning; a limit of zero
// lists all.
func LookupMembers(g guild.Name, role guild.Name, after guild.AccountID, limit uint, members *[]guild.AccountID) func(*badger.Txn) error {
	*members = (*members)[:0]
	var start []byte
	if after != guild.ZeroAccount {
		start = b(after)
	}
	iteration := func() (checkFunc, createFunc, handleFunc) {
		var m guild.Membership
		return func([]byte) bool { return true },
			func() interface{} { return &m },
			func() error {
				*members = append(*members, m.Account)
				return nil
			}
	}
	return traverse(makePrefix(codeMembership, g, role), start, limited(limit, iteration))
}
