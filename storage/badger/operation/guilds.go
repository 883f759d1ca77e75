package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
)

func InsertGuild(g *guild.Guild) func(*badger.Txn) error {
	return insert(makePrefix(codeGuild, g.Name), g)
}

func UpdateGuild(g *guild.Guild) func(*badger.Txn) error {
	return update(makePrefix(codeGuild, g.Name), g)
}

func RetrieveGuild(name guild.Name, g *guild.Guild) func(*badger.Txn) error {
	return retrieve(makePrefix(codeGuild, name), g)
}

func GuildExists(name guild.Name, found *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeGuild, name), found)
}
