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

const OperatorsCacheSize = 100

// Operators implements storage.Operators with a read cache.
type Operators struct {
	db    *badger.DB
	cache *Cache[guild.AccountID, guild.Operator]
}

var _ storage.Operators = (*Operators)(nil)

func NewOperators(collector module.CacheMetrics, db *badger.DB) *Operators {
	store := func(account guild.AccountID, op guild.Operator) func(*badger.Txn) error {
		return operation.InsertOperator(&op)
	}

	retrieve := func(account guild.AccountID) func(*badger.Txn) (guild.Operator, error) {
		return func(tx *badger.Txn) (guild.Operator, error) {
			var op guild.Operator
			err := operation.RetrieveOperator(account, &op)(tx)
			return op, err
		}
	}

	return &Operators{
		db: db,
		cache: newCache[guild.AccountID, guild.Operator](collector, metrics.ResourceOperator,
			withLimit[guild.AccountID, guild.Operator](OperatorsCacheSize),
			withStore(store),
			withRetrieve(retrieve)),
	}
}

func (o *Operators) InsertTx(op *guild.Operator) func(*transaction.Tx) error {
	return o.cache.PutTx(op.Account, *op)
}

func (o *Operators) UpdateTx(op *guild.Operator) func(*transaction.Tx) error {
	value := *op
	return func(tx *transaction.Tx) error {
		err := operation.UpdateOperator(&value)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not update operator %s: %w", value.Account, err)
		}
		tx.OnSucceed(func() {
			o.cache.Insert(value.Account, value)
		})
		return nil
	}
}

func (o *Operators) RemoveTx(account guild.AccountID) func(*transaction.Tx) error {
	return o.cache.RemoveTx(account, operation.RemoveOperator(account))
}

func (o *Operators) ByAccountTx(account guild.AccountID) func(*transaction.Tx) (*guild.Operator, error) {
	return func(tx *transaction.Tx) (*guild.Operator, error) {
		var op guild.Operator
		err := operation.RetrieveOperator(account, &op)(tx.DBTxn)
		if err != nil {
			return nil, err
		}
		return &op, nil
	}
}

func (o *Operators) ByAccount(account guild.AccountID) (*guild.Operator, error) {
	tx := o.db.NewTransaction(false)
	defer tx.Discard()
	op, err := o.cache.Get(account)(tx)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (o *Operators) All() ([]*guild.Operator, error) {
	var ops []*guild.Operator
	err := o.db.View(operation.TraverseOperators(&ops))
	if err != nil {
		return nil, fmt.Errorf("could not list operators: %w", err)
	}
	return ops, nil
}
