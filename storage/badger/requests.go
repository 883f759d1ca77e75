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

const RequestsCacheSize = 1000

// Requests implements storage.Requests with a read cache.
type Requests struct {
	db    *badger.DB
	cache *Cache[guild.RequestID, guild.Request]
}

var _ storage.Requests = (*Requests)(nil)

func NewRequests(collector module.CacheMetrics, db *badger.DB) *Requests {
	store := func(id guild.RequestID, req guild.Request) func(*badger.Txn) error {
		return operation.InsertRequest(&req)
	}

	retrieve := func(id guild.RequestID) func(*badger.Txn) (guild.Request, error) {
		return func(tx *badger.Txn) (guild.Request, error) {
			var req guild.Request
			err := operation.RetrieveRequest(id, &req)(tx)
			return req, err
		}
	}

	return &Requests{
		db: db,
		cache: newCache[guild.RequestID, guild.Request](collector, metrics.ResourceRequest,
			withLimit[guild.RequestID, guild.Request](RequestsCacheSize),
			withStore(store),
			withRetrieve(retrieve)),
	}
}

func (r *Requests) InsertTx(req *guild.Request) func(*transaction.Tx) error {
	return r.cache.PutTx(req.ID, *req)
}

func (r *Requests) UpdateTx(req *guild.Request) func(*transaction.Tx) error {
	value := *req
	return func(tx *transaction.Tx) error {
		err := operation.UpdateRequest(&value)(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not update request %d: %w", value.ID, err)
		}
		tx.OnSucceed(func() {
			r.cache.Insert(value.ID, value)
		})
		return nil
	}
}

func (r *Requests) ByIDTx(id guild.RequestID) func(*transaction.Tx) (*guild.Request, error) {
	return func(tx *transaction.Tx) (*guild.Request, error) {
		var req guild.Request
		err := operation.RetrieveRequest(id, &req)(tx.DBTxn)
		if err != nil {
			return nil, err
		}
		return &req, nil
	}
}

func (r *Requests) ByID(id guild.RequestID) (*guild.Request, error) {
	tx := r.db.NewTransaction(false)
	defer tx.Discard()
	req, err := r.cache.Get(id)(tx)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
