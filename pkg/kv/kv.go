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

// Package kv defines the transactional database interface that the
// higher layers consume. Implementations must provide serializable
// isolation for committed transactions; every blocking operation is a
// suspension point and observes its context.
package kv

import (
	"context"
	"errors"

	icommon "github.com/tidekv/tidekv/internal/common"
	"github.com/tidekv/tidekv/pkg/slice"
)

// KeyValue is a single key/value pair returned from a range read.
type KeyValue struct {
	Key   slice.Slice
	Value slice.Slice
}

// RangeOptions controls a range read. A Limit of zero means unlimited.
// When Reverse is set the last keys of the range are returned first and
// the limit counts from the end.
type RangeOptions struct {
	Limit   int
	Reverse bool
}

// KeyRange is the half-open key interval [Begin, End).
type KeyRange struct {
	Begin slice.Slice
	End   slice.Slice
}

// ReadTransaction is the read-only subset of a transaction.
type ReadTransaction interface {
	// Get returns the value stored at key, or Nil if the key is absent.
	Get(ctx context.Context, key slice.Slice) (slice.Slice, error)

	// GetRange returns the key/value pairs in [begin, end), in key order
	// (or reverse key order when opts.Reverse is set), up to opts.Limit.
	GetRange(ctx context.Context, begin, end slice.Slice, opts RangeOptions) ([]KeyValue, error)
}

// Transaction is a read/write transaction. Writes are buffered locally
// and take effect atomically at Commit. A single transaction is not
// safe for concurrent use.
type Transaction interface {
	ReadTransaction

	// Snapshot returns a read-only view of the transaction that performs
	// reads without recording conflict ranges.
	Snapshot() ReadTransaction

	// Set buffers a write of value at key.
	Set(key, value slice.Slice)

	// Clear buffers a deletion of key.
	Clear(key slice.Slice)

	// ClearRange buffers a deletion of every key in [begin, end).
	ClearRange(begin, end slice.Slice)

	// Commit validates the transaction's reads and atomically applies
	// its writes. A ConflictError is transient and safe to retry.
	Commit(ctx context.Context) error

	// Cancel abandons the transaction without effect. Idempotent.
	Cancel()
}

// Database is a handle to a transactional key/value store.
type Database interface {
	BeginTransaction(ctx context.Context) (Transaction, error)
	Close() error
}

// IsConflict reports whether err is a transient conflict that a retry
// loop should absorb.
func IsConflict(err error) bool {
	var ce icommon.ConflictError
	return errors.As(err, &ce)
}

// IsCancelled reports whether err is the distinguished cancellation outcome.
func IsCancelled(err error) bool {
	var ce icommon.CancelledError
	return errors.As(err, &ce) || errors.Is(err, context.Canceled)
}
