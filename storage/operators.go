package storage

import (
	"github.com/guildnet/guild-oracle/model/guild"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

// Operators persists registered oracle operators.
type Operators interface {

	// InsertTx returns a functor that stores a new operator. It fails with
	// ErrAlreadyExists if the account is already registered.
	InsertTx(op *guild.Operator) func(*transaction.Tx) error

	// UpdateTx returns a functor that replaces an existing operator.
	UpdateTx(op *guild.Operator) func(*transaction.Tx) error

	// RemoveTx returns a functor that deletes an operator.
	RemoveTx(account guild.AccountID) func(*transaction.Tx) error

	// ByAccountTx reads an operator inside a transaction, observing its
	// uncommitted writes.
	ByAccountTx(account guild.AccountID) func(*transaction.Tx) (*guild.Operator, error)

	// ByAccount returns the operator registered for account.
	// Expected errors: ErrNotFound.
	ByAccount(account guild.AccountID) (*guild.Operator, error)

	// All returns every registered operator ordered by account.
	All() ([]*guild.Operator, error)
}
