package pebbledb

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"

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

func sliceOf(b []byte) slice.Slice {
	return slice.FromBytes(b)
}

func inRange(key, begin, end []byte) bool {
	if bytes.Compare(key, begin) < 0 {
		return false
	}
	return end == nil || bytes.Compare(key, end) < 0
}

// transaction implements kv.Transaction over pebble with the same
// optimistic validation protocol as memdb.
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

func (t *transaction) state() error {
	if t.committed {
		return icommon.NewCommittedTransactionError("pebbledb: transaction is already committed")
	}
	if t.cancelled {
		return icommon.NewCancelledTransactionError("pebbledb: transaction is cancelled")
	}
	return nil
}

func (t *transaction) Get(ctx context.Context, key slice.Slice) (slice.Slice, error) {
	return t.get(ctx, key, true)
}

func (t *transaction) get(ctx context.Context, key slice.Slice, record bool) (slice.Slice, error) {
	if err := ctx.Err(); err != nil {
		return slice.Nil, icommon.NewCancelledError("pebbledb: get cancelled")
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

	value, found, err := t.db.get([]byte(k))
	if err != nil {
		return slice.Nil, err
	}
	if !found {
		return slice.Nil, nil
	}
	return sliceOf(value), nil
}

func (t *transaction) GetRange(ctx context.Context, begin, end slice.Slice, opts kv.RangeOptions) ([]kv.KeyValue, error) {
	return t.getRange(ctx, begin, end, opts, true)
}

func (t *transaction) getRange(ctx context.Context, begin, end slice.Slice, opts kv.RangeOptions, record bool) ([]kv.KeyValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, icommon.NewCancelledError("pebbledb: range read cancelled")
	}
	if err := t.state(); err != nil {
		return nil, err
	}

	b, e := begin.CopyBytes(), end.CopyBytes()
	if record {
		t.readRanges = append(t.readRanges, keyRange{begin: b, end: e})
	}

	stored, err := t.db.scan(b, e)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte, len(stored))
	for _, pair := range stored {
		merged[string(pair.Key.Bytes())] = pair.Value.Bytes()
	}
	for k, w := range t.writes {
		if !inRange([]byte(k), b, e) {
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

func (t *transaction) Snapshot() kv.ReadTransaction {
	return snapshotView{t: t}
}

func (t *transaction) Set(key, value slice.Slice) {
	if t.state() != nil {
		return
	}
	t.writes[string(key.Bytes())] = writeOp{value: value.CopyBytes()}
}

func (t *transaction) Clear(key slice.Slice) {
	if t.state() != nil {
		return
	}
	t.writes[string(key.Bytes())] = writeOp{clear: true}
}

func (t *transaction) ClearRange(begin, end slice.Slice) {
	if t.state() != nil {
		return
	}
	b, e := begin.CopyBytes(), end.CopyBytes()
	stored, err := t.db.scan(b, e)
	if err != nil {
		// Leave the failure to surface at commit through validation;
		// buffered state must not be half-applied.
		return
	}
	for _, pair := range stored {
		t.writes[string(pair.Key.Bytes())] = writeOp{clear: true}
	}
	for k := range t.writes {
		if inRange([]byte(k), b, e) {
			t.writes[k] = writeOp{clear: true}
		}
	}
}

func (t *transaction) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return icommon.NewCancelledError("pebbledb: commit cancelled")
	}
	if err := t.state(); err != nil {
		return err
	}

	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.closed {
		return icommon.NewClosedError("pebbledb: database is closed")
	}

	for k := range t.reads {
		if v, ok := t.db.versions[k]; ok && v > t.readVersion {
			return icommon.NewConflictError(fmt.Sprintf("pebbledb: read key %q modified at version %d past read version %d", k, v, t.readVersion))
		}
	}
	for _, r := range t.readRanges {
		if t.db.conflictIn(r.begin, r.end, t.readVersion) {
			return icommon.NewConflictError(fmt.Sprintf("pebbledb: read range modified past read version %d", t.readVersion))
		}
	}

	batch := t.db.pdb.NewBatch()
	defer batch.Close()
	for k, w := range t.writes {
		var err error
		if w.clear {
			err = batch.Delete([]byte(k), nil)
		} else {
			err = batch.Set([]byte(k), w.value, nil)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return err
	}

	next := t.db.version + 1
	for k := range t.writes {
		t.db.versions[k] = next
	}
	t.db.version = next
	t.committed = true
	return nil
}

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
