package storage

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Requests persists oracle requests.
type Requests interface {
	InsertTx(req *guild.Request) func(*transaction.Tx) error
	UpdateTx(req *guild.Request) func(*transaction.Tx) error
	ByIDTx(id guild.RequestID) func(*transaction.Tx) (*guild.Request, error)

	// ByID returns the stored request. The status is as stored; callers
	// observing expiry use Request.StatusAt.
	// Expected errors: ErrNotFound.
	ByID(id guild.RequestID) (*guild.Request, error)
}
