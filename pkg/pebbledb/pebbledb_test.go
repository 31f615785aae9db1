package pebbledb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/tidekv/pkg/kv"
	"github.com/tidekv/tidekv/pkg/slice"
	"github.com/tidekv/tidekv/test"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustBegin(t *testing.T, db *DB) kv.Transaction {
	t.Helper()
	tr, err := db.BeginTransaction(context.Background())
	require.NoError(t, err)
	return tr
}

func set(t *testing.T, db *DB, key, value string) {
	t.Helper()
	tr := mustBegin(t, db)
	tr.Set(slice.FromString(key), slice.FromString(value))
	require.NoError(t, tr.Commit(context.Background()))
}

func TestBasicCRUD(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := range test.TestKeys {
		tr := mustBegin(t, db)
		tr.Set(slice.FromBytes(test.TestKeys[i]), slice.FromBytes(test.TestValues[i]))
		require.NoError(t, tr.Commit(ctx))
	}

	tr := mustBegin(t, db)
	defer tr.Cancel()
	for i := range test.TestKeys {
		v, err := tr.Get(ctx, slice.FromBytes(test.TestKeys[i]))
		require.NoError(t, err)
		assert.Equal(t, test.TestValues[i], v.Bytes())
	}

	absent, err := tr.Get(ctx, slice.FromString("missing"))
	require.NoError(t, err)
	assert.False(t, absent.HasValue())
}

func TestClearAndRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d"} {
		set(t, db, k, "v-"+k)
	}

	tr := mustBegin(t, db)
	tr.Clear(slice.FromString("b"))
	require.NoError(t, tr.Commit(ctx))

	tr = mustBegin(t, db)
	defer tr.Cancel()

	pairs, err := tr.GetRange(ctx, slice.FromString("a"), slice.FromString("z"), kv.RangeOptions{})
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "a", string(pairs[0].Key.Bytes()))
	assert.Equal(t, "c", string(pairs[1].Key.Bytes()))

	pairs, err = tr.GetRange(ctx, slice.FromString("a"), slice.FromString("z"), kv.RangeOptions{Limit: 2, Reverse: true})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "d", string(pairs[0].Key.Bytes()))
	assert.Equal(t, "c", string(pairs[1].Key.Bytes()))
}

func TestReadConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	set(t, db, "k", "0")

	t1 := mustBegin(t, db)
	_, err := t1.Get(ctx, slice.FromString("k"))
	require.NoError(t, err)

	set(t, db, "k", "1")

	t1.Set(slice.FromString("k"), slice.FromString("2"))
	err = t1.Commit(ctx)
	require.Error(t, err)
	assert.True(t, kv.IsConflict(err))
}

func TestSnapshotReadsRecordNoConflict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	set(t, db, "k", "0")

	t1 := mustBegin(t, db)
	_, err := t1.Snapshot().Get(ctx, slice.FromString("k"))
	require.NoError(t, err)

	set(t, db, "k", "1")

	t1.Set(slice.FromString("other"), slice.FromString("v"))
	assert.NoError(t, t1.Commit(ctx))
}

func TestReadOwnWrites(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	set(t, db, "k", "committed")

	tr := mustBegin(t, db)
	defer tr.Cancel()
	tr.Set(slice.FromString("k"), slice.FromString("buffered"))

	v, err := tr.Get(ctx, slice.FromString("k"))
	require.NoError(t, err)
	assert.Equal(t, "buffered", string(v.Bytes()))

	pairs, err := tr.GetRange(ctx, slice.FromString("a"), slice.FromString("z"), kv.RangeOptions{})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "buffered", string(pairs[0].Value.Bytes()))
}

func TestClosedDatabase(t *testing.T) {
	db, err := OpenMem()
	require.NoError(t, err)
	ctx := context.Background()

	tr := mustBegin(t, db)
	tr.Set(slice.FromString("k"), slice.FromString("v"))

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	assert.Error(t, tr.Commit(ctx))
	_, err = db.BeginTransaction(ctx)
	assert.Error(t, err)
}
