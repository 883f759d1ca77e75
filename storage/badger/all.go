package badger

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/storage"
)

func InitAll(metrics module.CacheMetrics, db *badger.DB) *storage.All {
	return &storage.All{
		Operators:   NewOperators(metrics, db),
		Requests:    NewRequests(metrics, db),
		Guilds:      NewGuilds(metrics, db),
		Identities:  NewIdentities(metrics, db),
		Memberships: NewMemberships(db),
	}
}
