package main

import (
	"github.com/guildnet/guild-oracle/cmd/guild-node/cmd"
)

func main() {
	cmd.Execute()
}
