package memdb

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	icommon "github.com/tidekv/tidekv/internal/common"
	"github.com/tidekv/tidekv/pkg/kv"
	"github.com/tidekv/tidekv/pkg/slice"
)

// writeOp is a buffered mutation. clear wins over value.
type writeOp struct {
	value []byte
	clear bool
}

// keyRange is a half-open byte interval [begin, end).
type keyRange struct {
	begin, end []byte
}

// transaction implements kv.Transaction with optimistic concurrency
// control. Reads are recorded (unless performed through the snapshot
// view) and validated at commit against the store's per-key versions.
// A single transaction is not safe for concurrent use.
type transaction struct {
	db          *DB
	readVersion uint64

	reads      map[string]struct{}
	readRanges []keyRange
	writes     map[string]writeOp

	committed bool
	cancelled bool
}

var _ kv.Transaction = (*transaction)(nil)

func sliceOf(b []byte) slice.Slice {
	return slice.FromBytes(b)
}

func (t *transaction) state() error {
	if t.committed {
		return icommon.NewCommittedTransactionError("memdb: transaction is already committed")
	}
	if t.cancelled {
		return icommon.NewCancelledTransactionError("memdb: transaction is cancelled")
	}
	return nil
}

// Get returns the value at key, observing the transaction's own
// buffered writes first.
func (t *transaction) Get(ctx context.Context, key slice.Slice) (slice.Slice, error) {
	return t.get(ctx, key, true)
}

func (t *transaction) get(ctx context.Context, key slice.Slice, record bool) (slice.Slice, error) {
	if err := ctx.Err(); err != nil {
		return slice.Nil, icommon.NewCancelledError("memdb: get cancelled")
	}
	if err := t.state(); err != nil {
		return slice.Nil, err
	}

	k := string(key.Bytes())
	if record {
		t.reads[k] = struct{}{}
	}

	if w, ok := t.writes[k]; ok {
		if w.clear {
			return slice.Nil, nil
		}
		return sliceOf(w.value), nil
	}

	if e, ok := t.db.store.Load(key.CopyBytes()); ok && e.value != nil {
		return sliceOf(e.value), nil
	}
	return slice.Nil, nil
}

// GetRange returns the live pairs in [begin, end) merged with the
// transaction's own buffered writes.
func (t *transaction) GetRange(ctx context.Context, begin, end slice.Slice, opts kv.RangeOptions) ([]kv.KeyValue, error) {
	return t.getRange(ctx, begin, end, opts, true)
}

func (t *transaction) getRange(ctx context.Context, begin, end slice.Slice, opts kv.RangeOptions, record bool) ([]kv.KeyValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, icommon.NewCancelledError("memdb: range read cancelled")
	}
	if err := t.state(); err != nil {
		return nil, err
	}

	b, e := begin.CopyBytes(), end.CopyBytes()
	if record {
		t.readRanges = append(t.readRanges, keyRange{begin: b, end: e})
	}

	merged := make(map[string][]byte)
	for _, pair := range t.db.scan(b, e) {
		merged[string(pair.Key.Bytes())] = pair.Value.Bytes()
	}
	for k, w := range t.writes {
		kb := []byte(k)
		if bytes.Compare(kb, b) < 0 || (e != nil && bytes.Compare(kb, e) >= 0) {
			continue
		}
		if w.clear {
			delete(merged, k)
		} else {
			merged[k] = w.value
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if opts.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}

	out := make([]kv.KeyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, kv.KeyValue{
			Key:   slice.Copy([]byte(k)),
			Value: sliceOf(merged[k]),
		})
	}
	return out, nil
}

// Snapshot returns a view whose reads record no conflict ranges.
func (t *transaction) Snapshot() kv.ReadTransaction {
	return snapshotView{t: t}
}

// Set buffers a write. The value bytes are copied.
func (t *transaction) Set(key, value slice.Slice) {
	if t.state() != nil {
		return
	}
	t.writes[string(key.Bytes())] = writeOp{value: value.CopyBytes()}
}

// Clear buffers a deletion of key.
func (t *transaction) Clear(key slice.Slice) {
	if t.state() != nil {
		return
	}
	t.writes[string(key.Bytes())] = writeOp{clear: true}
}

// ClearRange buffers a deletion of every key currently visible in
// [begin, end), including the transaction's own buffered writes.
func (t *transaction) ClearRange(begin, end slice.Slice) {
	if t.state() != nil {
		return
	}
	b, e := begin.CopyBytes(), end.CopyBytes()
	for _, pair := range t.db.scan(b, e) {
		t.writes[string(pair.Key.Bytes())] = writeOp{clear: true}
	}
	for k := range t.writes {
		kb := []byte(k)
		if bytes.Compare(kb, b) >= 0 && (e == nil || bytes.Compare(kb, e) < 0) {
			t.writes[k] = writeOp{clear: true}
		}
	}
}

// Commit validates every recorded read against the store and applies
// the buffered writes at a fresh version.
func (t *transaction) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return icommon.NewCancelledError("memdb: commit cancelled")
	}
	if err := t.state(); err != nil {
		return err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.closed {
		return icommon.NewClosedError("memdb: database is closed")
	}

	for k := range t.reads {
		if e, ok := t.db.store.Load([]byte(k)); ok && e.version > t.readVersion {
			return icommon.NewConflictError(fmt.Sprintf("memdb: read key %q modified at version %d past read version %d", k, e.version, t.readVersion))
		}
	}
	for _, r := range t.readRanges {
		if t.db.conflictIn(r.begin, r.end, t.readVersion) {
			return icommon.NewConflictError(fmt.Sprintf("memdb: read range modified past read version %d", t.readVersion))
		}
	}

	next := t.db.version + 1
	for k, w := range t.writes {
		value := w.value
		if w.clear {
			value = nil
		}
		t.db.store.Store([]byte(k), &entry{value: value, version: next})
	}
	t.db.version = next
	t.committed = true
	return nil
}

// Cancel abandons the transaction. Idempotent; a no-op after commit.
func (t *transaction) Cancel() {
	if !t.committed {
		t.cancelled = true
	}
}

// snapshotView adapts a transaction to its snapshot read path.
type snapshotView struct {
	t *transaction
}

var _ kv.ReadTransaction = snapshotView{}

func (s snapshotView) Get(ctx context.Context, key slice.Slice) (slice.Slice, error) {
	return s.t.get(ctx, key, false)
}

func (s snapshotView) GetRange(ctx context.Context, begin, end slice.Slice, opts kv.RangeOptions) ([]kv.KeyValue, error) {
	return s.t.getRange(ctx, begin, end, opts, false)
}
