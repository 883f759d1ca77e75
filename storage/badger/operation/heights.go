package operation

import (
	"github.com/dgraph-io/badger/v2"
)

func InsertHeight(height uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeHeight), height)
}

func UpdateHeight(height uint64) func(*badger.Txn) error {
	return update(makePrefix(codeHeight), height)
}

func RetrieveHeight(height *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeHeight), height)
}

// InitRequestCounter sets the id the next request will receive.
func InitRequestCounter(next uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeRequestCounter), next)
}

func UpdateRequestCounter(next uint64) func(*badger.Txn) error {
	return update(makePrefix(codeRequestCounter), next)
}

func RetrieveRequestCounter(next *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRequestCounter), next)
}
