package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
)

func InsertOperator(op *guild.Operator) func(*badger.Txn) error {
	return insert(makePrefix(codeOperator, op.Account), op)
}

func UpdateOperator(op *guild.Operator) func(*badger.Txn) error {
	return update(makePrefix(codeOperator, op.Account), op)
}

func RetrieveOperator(account guild.AccountID, op *guild.Operator) func(*badger.Txn) error {
	return retrieve(makePrefix(codeOperator, account), op)
}

func RemoveOperator(account guild.AccountID) func(*badger.Txn) error {
	return remove(makePrefix(codeOperator, account))
}

// TraverseOperators lists registered operators ordered by account.
func TraverseOperators(ops *[]*guild.Operator) func(*badger.Txn) error {
	*ops = (*ops)[:0]
	return traverse(makePrefix(codeOperator), nil, func() (checkFunc, createFunc, handleFunc) {
		var op guild.Operator
		return func([]byte) bool { return true },
			func() interface{} { return &op },
			func() error {
				opCopy := op
				*ops = append(*ops, &opCopy)
				return nil
			}
	})
}

// UpsertActiveOperators stores the active operator list in activation order.
func UpsertActiveOperators(active []guild.AccountID) func(*badger.Txn) error {
	return upsert(makePrefix(codeActiveList), active)
}

// RetrieveActiveOperators loads the active list; a missing list is empty.
func RetrieveActiveOperators(active *[]guild.AccountID) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		*active = nil
		return SkipNonExist(retrieve(makePrefix(codeActiveList), active))(tx)
	}
}

func UpsertRoundRobin(ptr uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeRoundRobin), ptr)
}

// RetrieveRoundRobin loads the round robin pointer; a missing pointer is 0.
func RetrieveRoundRobin(ptr *uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		*ptr = 0
		return SkipNonExist(retrieve(makePrefix(codeRoundRobin), ptr))(tx)
	}
}
