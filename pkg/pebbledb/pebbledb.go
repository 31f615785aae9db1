/**
 * Copyright 2022 The TideKV Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pebbledb implements the kv interfaces on top of the pebble
// storage engine, either on disk or over an in-memory filesystem. The
// optimistic concurrency layer mirrors memdb: pebble stores the data,
// while per-key version stamps kept beside it drive commit validation.
package pebbledb

import (
	"context"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	log "github.com/sirupsen/logrus"

	icommon "github.com/tidekv/tidekv/internal/common"
	"github.com/tidekv/tidekv/pkg/kv"
)

// DB is a transactional key/value store backed by pebble.
type DB struct {
	pdb *pebble.DB

	mu       sync.Mutex
	version  uint64
	versions map[string]uint64
	closed   bool
}

var _ kv.Database = (*DB)(nil)

// Open opens (or creates) a database in the given directory.
func Open(dirname string) (*DB, error) {
	pdb, err := pebble.Open(dirname, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"dirname": dirname}).Info("pebbledb::pebbledb::Open; opened database")
	return &DB{pdb: pdb, versions: make(map[string]uint64)}, nil
}

// OpenMem opens a database over an in-memory filesystem. Useful for
// tests that want the full storage engine without touching disk.
func OpenMem() (*DB, error) {
	pdb, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &DB{pdb: pdb, versions: make(map[string]uint64)}, nil
}

// BeginTransaction starts a new transaction at the current read version.
func (db *DB) BeginTransaction(ctx context.Context) (kv.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, icommon.NewCancelledError("pebbledb: begin transaction cancelled")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, icommon.NewClosedError("pebbledb: database is closed")
	}

	return &transaction{
		db:          db,
		readVersion: db.version,
		reads:       make(map[string]struct{}),
		writes:      make(map[string]writeOp),
	}, nil
}

// Close closes the underlying pebble instance.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.pdb.Close()
}

// get reads a single key from pebble. Returns nil, false for an absent key.
func (db *DB) get(key []byte) ([]byte, bool, error) {
	value, closer, err := db.pdb.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	if err := closer.Close(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// scan collects the pairs in [begin, end) in key order.
func (db *DB) scan(begin, end []byte) ([]kv.KeyValue, error) {
	iter, err := db.pdb.NewIter(&pebble.IterOptions{
		LowerBound: begin,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []kv.KeyValue
	for valid := iter.First(); valid; valid = iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		out = append(out, kv.KeyValue{Key: sliceOf(key), Value: sliceOf(value)})
	}
	return out, iter.Error()
}

// conflictIn reports whether any key in [begin, end) carries a version
// stamp newer than the given version. Caller holds db.mu.
func (db *DB) conflictIn(begin, end []byte, version uint64) bool {
	for k, v := range db.versions {
		if v <= version {
			continue
		}
		if inRange([]byte(k), begin, end) {
			return true
		}
	}
	return false
}
