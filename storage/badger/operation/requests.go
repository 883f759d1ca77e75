package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/model/guild"
)

func InsertRequest(req *guild.Request) func(*badger.Txn) error {
	return insert(makePrefix(codeRequest, req.ID), req)
}

func UpdateRequest(req *guild.Request) func(*badger.Txn) error {
	return update(makePrefix(codeRequest, req.ID), req)
}

func RetrieveRequest(id guild.RequestID, req *guild.Request) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRequest, id), req)
}

// IndexPendingRequest records a pending request both under its operator and
// under its expiry height.
func IndexPendingRequest(req *guild.Request) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := insert(makePrefix(codePendingByOperator, req.Operator, req.ID), req.ID)(tx)
		if err != nil {
			return err
		}
		return insert(makePrefix(codePendingByExpiry, req.ExpiresAt, req.ID), req.ID)(tx)
	}
}

// UnindexPendingRequest drops both pending indexes of a request.
func UnindexPendingRequest(req *guild.Request) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := remove(makePrefix(codePendingByOperator, req.Operator, req.ID))(tx)
		if err != nil {
			return err
		}
		return remove(makePrefix(codePendingByExpiry, req.ExpiresAt, req.ID))(tx)
	}
}

// LookupPendingByOperator lists ids of pending requests assigned to
// operator in ascending order, starting after the given id. A limit of zero
// lists all.
func LookupPendingByOperator(operator guild.AccountID, after guild.RequestID, limit uint, ids *[]guild.RequestID) func(*badger.Txn) error {
	var start []byte
	if after > 0 {
		start = b(after)
	}
	return traverse(makePrefix(codePendingByOperator, operator), start, limited(limit, lookup(ids)))
}

// LookupExpiredBefore lists ids of pending requests whose expiry height is
// at most height, oldest expiry first.
func LookupExpiredBefore(height uint64, limit uint, ids *[]guild.RequestID) func(*badger.Txn) error {
	collect := lookup(ids)
	iteration := func() (checkFunc, createFunc, handleFunc) {
		_, create, handle := collect()
		return func(key []byte) bool {
				// key: code | expiry | id
				return len(key) >= 9 && keyUint64(key[1:9]) <= height
			},
			create,
			handle
	}
	return traverse(makePrefix(codePendingByExpiry), nil, limited(limit, stopWhenUnchecked(iteration)))
}

// stopWhenUnchecked turns the first rejected key of an ordered index into
// the end of the iteration.
func stopWhenUnchecked(iteration iterationFunc) iterationFunc {
	return func() (checkFunc, createFunc, handleFunc) {
		check, create, handle := iteration()
		stop := false
		return func(key []byte) bool {
				if !check(key) {
					stop = true
				}
				return true
			},
			create,
			func() error {
				if stop {
					return errStopIteration
				}
				return handle()
			}
	}
}

func lookup(ids *[]guild.RequestID) iterationFunc {
	*ids = (*ids)[:0]
	return func() (checkFunc, createFunc, handleFunc) {
		var id guild.RequestID
		return func([]byte) bool { return true },
			func() interface{} { return &id },
			func() error {
				*ids = append(*ids, id)
				return nil
			}
	}
}
