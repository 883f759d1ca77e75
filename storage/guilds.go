package storage

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Guilds persists guilds together with their roles.
type Guilds interface {
	InsertTx(g *guild.Guild) func(*transaction.Tx) error
	UpdateTx(g *guild.Guild) func(*transaction.Tx) error
	ByNameTx(name guild.Name) func(*transaction.Tx) (*guild.Guild, error)
	ByName(name guild.Name) (*guild.Guild, error)
}
