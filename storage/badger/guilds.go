package badger

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/module/metrics"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/operation"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

const GuildsCacheSize = 200

// Guilds implements storage.Guilds with a read cache.
type Guilds struct {
	db    *badger.DB
	cache *Cache[guild.Name, guild.Guild]
}

var _ storage.Guilds = (*Guilds)(nil)

func NewGuilds(collector module.CacheMetrics, db *badger.DB) *Guilds {
	store := func(name guild.Name, g guild.Guild) func(*badger.Txn) error {
		return operation.InsertGuild(&g)
	}

	retrieve := func(name guild.Name) func(*badger.Txn) (guild.Guild, error) {
		return func(tx *badger.Txn) (guild.Guild, error) {
			var g guild.Guild
			err := operation.RetrieveGuild(name, &g)(tx)
			return g, err
		}
	}

	return &Guilds{
		db: db,
		cache: newCache[guild.Name, guild.Guild](collector, metrics.ResourceGuild,
			withLimit[guild.Name, guild.Guild](GuildsCacheSize),
			withStore(store),
			withRetrieve(retrieve)),
	}
}

func (g *Guilds) InsertTx(value *guild.Guild) func(*transaction.Tx) error {
	return g.cache.PutTx(value.Name, cloneGuild(value))
}

func (g *Guilds) UpdateTx(value *guild.Guild) func(*transaction.Tx) error {
	stored := cloneGuild(value)
	return func(tx *transaction.Tx) error {
		err := operation.UpdateGuild(&stored)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not update guild %s: %w", stored.Name, err)
		}
		tx.OnSucceed(func() {
			g.cache.Insert(stored.Name, stored)
		})
		return nil
	}
}

func (g *Guilds) ByNameTx(name guild.Name) func(*transaction.Tx) (*guild.Guild, error) {
	return func(tx *transaction.Tx) (*guild.Guild, error) {
		var value guild.Guild
		err := operation.RetrieveGuild(name, &value)(tx.DBTxn)
		if err != nil {
			return nil, err
		}
		return &value, nil
	}
}

func (g *Guilds) ByName(name guild.Name) (*guild.Guild, error) {
	tx := g.db.NewTransaction(false)
	defer tx.Discard()
	value, err := g.cache.Get(name)(tx)
	if err != nil {
		return nil, err
	}
	clone := cloneGuild(&value)
	return &clone, nil
}

// cloneGuild copies the role slice so callers appending roles never write
// into a cached guild.
func cloneGuild(g *guild.Guild) guild.Guild {
	clone := *g
	clone.Roles = append([]guild.Role(nil), g.Roles...)
	return clone
}
