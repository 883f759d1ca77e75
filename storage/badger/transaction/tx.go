package transaction

import (
	"github.com/dgraph-io/badger/v2"
)

// Tx wraps a badger transaction and collects callbacks that run only after
// the transaction committed successfully.
type Tx struct {
	DBTxn     *badger.Txn
	callbacks []func()
}

// OnSucceed adds a callback to execute after the batch has been successfully
// committed.
func (tx *Tx) OnSucceed(callback func()) {
	tx.callbacks = append(tx.callbacks, callback)
}

// Update creates a badger transaction, passing it to a chain of functions,
// if all succeed, then commits the transaction and runs the OnSucceed
// callbacks in the order they were added.
func Update(db *badger.DB, f func(*Tx) error) error {
	dbTxn := db.NewTransaction(true)
	defer dbTxn.Discard()

	tx := &Tx{DBTxn: dbTxn}
	err := f(tx)
	if err != nil {
		return err
	}

	err = dbTxn.Commit()
	if err != nil {
		return err
	}

	for _, callback := range tx.callbacks {
		callback()
	}
	return nil
}

// View runs f in a read-only transaction. Callbacks registered by f are
// dropped.
func View(db *badger.DB, f func(*Tx) error) error {
	dbTxn := db.NewTransaction(false)
	defer dbTxn.Discard()
	return f(&Tx{DBTxn: dbTxn})
}

// WithTx adapts a function that takes a *badger.Txn to one that takes a *Tx.
func WithTx(f func(*badger.Txn) error) func(*Tx) error {
	return func(tx *Tx) error {
		return f(tx.DBTxn)
	}
}
