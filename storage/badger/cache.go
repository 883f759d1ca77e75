package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/guildnet/guild-oracle/module"
	"github.com/guildnet/guild-oracle/storage"
	"github.com/guildnet/guild-oracle/storage/badger/transaction"
)

func withLimit[K comparable, V any](limit uint) func(*Cache[K, V]) {
	return func(c *Cache[K, V]) {
		c.limit = limit
	}
}

type storeFunc[K comparable, V any] func(key K, val V) func(*badger.Txn) error

func withStore[K comparable, V any](store storeFunc[K, V]) func(*Cache[K, V]) {
	return func(c *Cache[K, V]) {
		c.store = store
	}
}

func noStore[K comparable, V any](_ K, _ V) func(*badger.Txn) error {
	return func(*badger.Txn) error {
		return fmt.Errorf("no store function for cache put available")
	}
}

type retrieveFunc[K comparable, V any] func(key K) func(*badger.Txn) (V, error)

func withRetrieve[K comparable, V any](retrieve retrieveFunc[K, V]) func(*Cache[K, V]) {
	return func(c *Cache[K, V]) {
		c.retrieve = retrieve
	}
}

func noRetrieve[K comparable, V any](_ K) func(*badger.Txn) (V, error) {
	return func(*badger.Txn) (V, error) {
		var nullV V
		return nullV, fmt.Errorf("no retrieve function for cache get available")
	}
}

// Cache is a read-through LRU cache in front of badger. Values enter the
// cache only after the transaction writing them committed, so a cached
// value is never ahead of the database.
type Cache[K comparable, V any] struct {
	metrics  module.CacheMetrics
	limit    uint
	store    storeFunc[K, V]
	retrieve retrieveFunc[K, V]
	resource string
	cache    *lru.Cache[K, V]
}

func newCache[K comparable, V any](collector module.CacheMetrics, resourceName string, options ...func(*Cache[K, V])) *Cache[K, V] {
	c := Cache[K, V]{
		metrics:  collector,
		limit:    1000,
		store:    noStore[K, V],
		retrieve: noRetrieve[K, V],
		resource: resourceName,
	}
	for _, option := range options {
		option(&c)
	}
	c.cache, _ = lru.New[K, V](int(c.limit))
	c.metrics.CacheEntries(c.resource, uint(c.cache.Len()))
	return &c
}

// Get reads key from the cache, falling back to the retrieve function and
// caching what it returns. Unknown keys yield storage.ErrNotFound.
func (c *Cache[K, V]) Get(key K) func(*badger.Txn) (V, error) {
	return func(tx *badger.Txn) (V, error) {
		if resource, ok := c.cache.Get(key); ok {
			c.metrics.CacheHit(c.resource)
			return resource, nil
		}

		resource, err := c.retrieve(key)(tx)
		if errors.Is(err, storage.ErrNotFound) {
			c.metrics.CacheNotFound(c.resource)
		}
		if err != nil {
			var zero V
			return zero, fmt.Errorf("could not retrieve %s: %w", c.resource, err)
		}

		c.metrics.CacheMiss(c.resource)
		c.Insert(key, resource)
		return resource, nil
	}
}

// Insert caches resource, evicting the least recently used entry when
// full.
func (c *Cache[K, V]) Insert(key K, resource V) {
	if evicted := c.cache.Add(key, resource); !evicted {
		c.metrics.CacheEntries(c.resource, uint(c.cache.Len()))
	}
}

func (c *Cache[K, V]) Remove(key K) {
	c.cache.Remove(key)
}

// PutTx returns a functor that writes resource with the injected store
// function and caches it once the transaction committed.
func (c *Cache[K, V]) PutTx(key K, resource V) func(*transaction.Tx) error {
	storeOps := c.store(key, resource) // assemble DB operations to store resource (no execution)

	return func(tx *transaction.Tx) error {
		err := storeOps(tx.DBTxn)
		if err != nil {
			return fmt.Errorf("could not store resource: %w", err)
		}
		tx.OnSucceed(func() {
			c.Insert(key, resource)
		})
		return nil
	}
}

// RemoveTx returns a functor that runs op and evicts key once the
// transaction committed.
func (c *Cache[K, V]) RemoveTx(key K, op func(*badger.Txn) error) func(*transaction.Tx) error {
	return func(tx *transaction.Tx) error {
		err := op(tx.DBTxn)
		if err != nil {
			return err
		}
		tx.OnSucceed(func() {
			c.Remove(key)
		})
		return nil
	}
}
