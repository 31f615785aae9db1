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

// Package memdb is an in-memory implementation of the kv interfaces
// with optimistic concurrency control. It exists so the layers above
// the core can run without the native database binding: transactions
// buffer writes, record their reads and validate them at commit under
// a single commit lock. Deleted keys remain as versioned tombstones so
// that conflict validation can see them.
package memdb

import (
	"bytes"
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/zhangyunhao116/skipmap"

	icommon "github.com/tidekv/tidekv/internal/common"
	"github.com/tidekv/tidekv/pkg/kv"
)

// entry is a committed version of a key. A nil value is a tombstone.
type entry struct {
	value   []byte
	version uint64
}

// DB is an in-memory transactional key/value store ordered bytewise.
type DB struct {
	// store maps keys to their latest committed entry. The skip map is
	// safe for concurrent readers; commit ordering is enforced by mu.
	store *skipmap.FuncMap[[]byte, *entry]

	mu      sync.Mutex
	version uint64
	closed  bool
}

var _ kv.Database = (*DB)(nil)

// New creates an empty database.
func New() *DB {
	return &DB{
		store: skipmap.NewFunc[[]byte, *entry](func(a, b []byte) bool {
			return bytes.Compare(a, b) < 0
		}),
	}
}

// BeginTransaction starts a new transaction at the current read version.
func (db *DB) BeginTransaction(ctx context.Context) (kv.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, icommon.NewCancelledError("memdb: begin transaction cancelled")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, icommon.NewClosedError("memdb: database is closed")
	}

	return &transaction{
		db:          db,
		readVersion: db.version,
		reads:       make(map[string]struct{}),
		writes:      make(map[string]writeOp),
	}, nil
}

// Close marks the database closed. In-flight transactions fail at their
// next commit.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	log.WithFields(log.Fields{"version": db.version, "keys": db.store.Len()}).Debug("memdb::memdb::Close; database closed")
	return nil
}

// scan collects the live (non-tombstone) entries in [begin, end) in key
// order. A nil end scans to the end of the keyspace.
func (db *DB) scan(begin, end []byte) []kv.KeyValue {
	var out []kv.KeyValue
	db.store.Range(func(key []byte, e *entry) bool {
		if end != nil && bytes.Compare(key, end) >= 0 {
			return false
		}
		if bytes.Compare(key, begin) < 0 {
			return true
		}
		if e.value != nil {
			out = append(out, kv.KeyValue{
				Key:   sliceOf(key),
				Value: sliceOf(e.value),
			})
		}
		return true
	})
	return out
}

// conflictIn reports whether any entry in [begin, end) was committed
// after the given version.
func (db *DB) conflictIn(begin, end []byte, version uint64) bool {
	conflict := false
	db.store.Range(func(key []byte, e *entry) bool {
		if end != nil && bytes.Compare(key, end) >= 0 {
			return false
		}
		if bytes.Compare(key, begin) < 0 {
			return true
		}
		if e.version > version {
			conflict = true
			return false
		}
		return true
	})
	return conflict
}
