// Plotshare - Garden Sharing and Community Marketplace
// Copyright 2026 Plotshare contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plotshare/plotshare

package geocode

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/plotshare/plotshare/internal/logging"
)

// BadgerCache persists resolved postcode records across restarts. Shard
// parsing is cheap but the data directory may live on slow storage;
// operators running on NFS mounts enable this with
// POSTCODE_PERSISTENT_CACHE=true.
type BadgerCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

// OpenBadgerCache opens (or creates) the persistent cache at dir. Entries
// expire after ttl; 0 means 24 hours.
func OpenBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logger is too chatty at INFO

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache at %s: %w", dir, err)
	}

	return &BadgerCache{
		db:     db,
		ttl:    ttl,
		logger: logging.WithComponent("geocode-cache"),
	}, nil
}

// Get returns the cached record for a whitespace-stripped postcode key.
func (c *BadgerCache) Get(key string) (Record, bool) {
	var rec Record
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("pc:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return Record{}, false
	}
	return rec, true
}

// Set stores a record under a whitespace-stripped postcode key.
func (c *BadgerCache) Set(key string, rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte("pc:"+key), data).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Close flushes and closes the underlying store.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
