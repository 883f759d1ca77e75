package operation

import (
	"errors"

	"github.com/dgraph-io/badger/v2"

	"github.com/guildnet/guild-oracle/storage"
)

// SkipDuplicates turns storage.ErrAlreadyExists into success.
func SkipDuplicates(op func(*badger.Txn) error) func(tx *badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := op(tx)
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil
		}
		return err
	}
}

// SkipNonExist turns storage.ErrNotFound into success.
func SkipNonExist(op func(*badger.Txn) error) func(tx *badger.Txn) error {
	return func(tx *badger.Txn) error {
		err := op(tx)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
}
