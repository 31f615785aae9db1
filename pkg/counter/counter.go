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

// Package counter implements a contention-tolerant integer stored as
// many randomly keyed shards within a subspace.
//
// Every Add writes one fresh shard, so concurrent Adds land at distinct
// keys and never conflict. A probabilistic background pass coalesces a
// window of shards into one to bound storage and read cost; coalescing
// passes conflict with each other through the per-shard reads they
// issue, but never with Add.
package counter

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/kv"
	"github.com/tidekv/tidekv/pkg/slice"
	"github.com/tidekv/tidekv/pkg/subspace"
	"github.com/tidekv/tidekv/pkg/tuple"
)

// Options are the tunables of a counter instance.
type Options struct {
	// SampleSize is the number of shards collapsed per coalescing pass.
	SampleSize int

	// CoalesceProbability is the chance that a single Add triggers a
	// background coalescing pass.
	CoalesceProbability float64

	// Random supplies shard identifiers and coin flips.
	Random RandomSource
}

// DefaultOptions returns the default tunables.
func DefaultOptions() Options {
	return Options{
		SampleSize:          20,
		CoalesceProbability: 0.1,
		Random:              DefaultRandomSource(),
	}
}

// OptionsFromConfig builds Options from a loaded configuration.
func OptionsFromConfig(conf *common.CounterConfig) Options {
	opts := DefaultOptions()
	if conf.SampleSize != 0 {
		opts.SampleSize = conf.SampleSize
	}
	opts.CoalesceProbability = conf.CoalesceProbability
	return opts
}

// Counter is a sharded integer confined to a subspace. All methods that
// take a transaction participate in the caller's transaction; the
// background coalescing pass runs its own.
//
// A counter is safe for concurrent use.
type Counter struct {
	db   kv.Database
	ss   subspace.Subspace
	opts Options

	// coalescing is 1 while a background pass is in flight. Triggers
	// that lose the swap are skipped, keeping at most one pass running.
	coalescing int32

	wg sync.WaitGroup
}

// New creates a counter over the given subspace. A nil opts selects the
// defaults. For a non-nil opts, a zero SampleSize and a nil Random are
// defaulted individually; CoalesceProbability is taken as given, so a
// zero value disables background coalescing.
func New(db kv.Database, ss subspace.Subspace, opts *Options) *Counter {
	o := DefaultOptions()
	if opts != nil {
		if opts.SampleSize != 0 {
			o.SampleSize = opts.SampleSize
		}
		o.CoalesceProbability = opts.CoalesceProbability
		if opts.Random != nil {
			o.Random = opts.Random
		}
	}
	return &Counter{db: db, ss: ss, opts: o}
}

// shardKey packs a fresh random shard key within the subspace.
func (c *Counter) shardKey() (slice.Slice, error) {
	return c.ss.Pack(tuple.New(c.opts.Random.ID()))
}

// decodeShard extracts the signed delta stored in a shard value.
func decodeShard(value slice.Slice) (int64, error) {
	return tuple.FromSlice(value).GetInt(0)
}

// Add buffers a write of one fresh shard carrying delta into the
// caller's transaction. It never reads, so concurrent Adds do not
// conflict. With probability CoalesceProbability it also triggers a
// background coalescing pass.
func (c *Counter) Add(ctx context.Context, tr kv.Transaction, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := c.shardKey()
	if err != nil {
		return err
	}
	value, err := tuple.New(delta).Pack()
	if err != nil {
		return err
	}
	tr.Set(key, value)

	if c.opts.CoalesceProbability > 0 {
		threshold := uint64(c.opts.CoalesceProbability * (1 << 32))
		if uint64(c.opts.Random.Uint32()) < threshold {
			c.triggerCoalesce()
		}
	}
	return nil
}

// GetTransactional sums every shard in the subspace within the caller's
// transaction, entering its read conflict range.
func (c *Counter) GetTransactional(ctx context.Context, tr kv.ReadTransaction) (int64, error) {
	return c.sum(ctx, tr)
}

// GetSnapshot sums every shard through the transaction's snapshot view,
// recording no read conflicts.
func (c *Counter) GetSnapshot(ctx context.Context, tr kv.Transaction) (int64, error) {
	return c.sum(ctx, tr.Snapshot())
}

func (c *Counter) sum(ctx context.Context, rt kv.ReadTransaction) (int64, error) {
	begin, end := c.ss.Range()
	pairs, err := rt.GetRange(ctx, begin, end, kv.RangeOptions{})
	if err != nil {
		return 0, err
	}

	var total int64
	for _, pair := range pairs {
		v, err := decodeShard(pair.Value)
		if err != nil {
			return 0, err
		}
		total, err = common.AddInt64(total, v)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// SetTotal adjusts the counter so the total becomes x, by reading the
// snapshot total and adding the difference. The net effect commits
// atomically with the caller's transaction.
func (c *Counter) SetTotal(ctx context.Context, tr kv.Transaction, x int64) error {
	s, err := c.GetSnapshot(ctx, tr)
	if err != nil {
		return err
	}
	delta, err := common.SubInt64(x, s)
	if err != nil {
		return err
	}
	return c.Add(ctx, tr, delta)
}

// Coalesce collapses up to n shards into one within a single
// transaction of its own. The window is chosen around a random pivot,
// scanning forward or backward on a coin flip. The window is read
// through the snapshot view so the scan itself conflicts with nothing;
// each collapsed shard is then read transactionally to enter its
// conflict range, so two concurrent passes over overlapping windows
// conflict with each other and one of them loses.
func (c *Counter) Coalesce(ctx context.Context, n int) error {
	tr, err := c.db.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer tr.Cancel()

	pivot, err := c.shardKey()
	if err != nil {
		return err
	}
	begin, end := c.ss.Range()

	var pairs []kv.KeyValue
	if c.opts.Random.Uint32()&1 == 0 {
		// Forward window [pivot, end).
		pairs, err = tr.Snapshot().GetRange(ctx, pivot, end, kv.RangeOptions{Limit: n})
	} else {
		// Backward window (begin, pivot], scanning in reverse.
		pivotSucc := pivot.Concat(slice.FromBytes([]byte{0x00}))
		pairs, err = tr.Snapshot().GetRange(ctx, begin, pivotSucc, kv.RangeOptions{Limit: n, Reverse: true})
	}
	if err != nil {
		return err
	}
	if len(pairs) <= 1 {
		return nil
	}

	var total int64
	for _, pair := range pairs {
		v, err := decodeShard(pair.Value)
		if err != nil {
			return err
		}
		total, err = common.AddInt64(total, v)
		if err != nil {
			return err
		}
	}

	for _, pair := range pairs {
		// The transactional read enters the shard's conflict range, so
		// a concurrent pass collapsing the same shard cannot also commit.
		if _, err := tr.Get(ctx, pair.Key); err != nil {
			return err
		}
		tr.Clear(pair.Key)
	}

	key, err := c.shardKey()
	if err != nil {
		return err
	}
	value, err := tuple.New(total).Pack()
	if err != nil {
		return err
	}
	tr.Set(key, value)

	if err := tr.Commit(ctx); err != nil {
		return err
	}
	log.WithFields(log.Fields{"shards": len(pairs), "total": total}).Debug("counter::counter::Coalesce; collapsed shard window")
	return nil
}

// triggerCoalesce starts a background coalescing pass unless one is
// already in flight. The pass is fire-and-forget: every outcome is
// observed here and never propagated.
func (c *Counter) triggerCoalesce() {
	if !atomic.CompareAndSwapInt32(&c.coalescing, 0, 1) {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer atomic.StoreInt32(&c.coalescing, 0)

		err := c.Coalesce(context.Background(), c.opts.SampleSize)
		switch {
		case err == nil:
		case kv.IsConflict(err):
			log.Debug("counter::counter::triggerCoalesce; pass lost a conflict, skipped")
		case kv.IsCancelled(err):
			log.Debug("counter::counter::triggerCoalesce; pass cancelled")
		default:
			log.WithFields(log.Fields{"error": err.Error()}).Error("counter::counter::triggerCoalesce; pass failed")
		}
	}()
}

// waitCoalesce blocks until no background pass is in flight.
func (c *Counter) waitCoalesce() {
	c.wg.Wait()
}
