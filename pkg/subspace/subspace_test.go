package subspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/tidekv/pkg/slice"
	"github.com/tidekv/tidekv/pkg/tuple"
)

func TestPackUnpack(t *testing.T) {
	ss := New(slice.FromString("users"))

	key, err := ss.Pack(tuple.New("alice", 42))
	require.NoError(t, err)
	assert.True(t, ss.Contains(key))

	back, err := ss.Unpack(key)
	require.NoError(t, err)
	assert.True(t, back.Equal(tuple.New("alice", 42)))
}

func TestPackSlice(t *testing.T) {
	ss := New(slice.FromString("p"))
	packed, err := tuple.New(7).Pack()
	require.NoError(t, err)

	direct := ss.PackSlice(packed)
	viaTuple, err := ss.Pack(tuple.New(7))
	require.NoError(t, err)
	assert.Equal(t, 0, direct.Compare(viaTuple))
}

func TestContains(t *testing.T) {
	ss := New(slice.FromString("abc"))

	assert.True(t, ss.Contains(slice.FromString("abc")))
	assert.True(t, ss.Contains(slice.FromString("abcdef")))
	assert.False(t, ss.Contains(slice.FromString("ab")))
	assert.False(t, ss.Contains(slice.FromString("abd")))
	assert.False(t, ss.Contains(slice.Nil))
}

func TestUnpackOutside(t *testing.T) {
	ss := New(slice.FromString("inside"))
	_, err := ss.Unpack(slice.FromString("elsewhere"))
	assert.Error(t, err)
}

// TestRangeBracketsKeys: every packed key falls inside Range and the
// bare prefix falls outside it.
func TestRangeBracketsKeys(t *testing.T) {
	ss := New(slice.FromString("ctr"))
	begin, end := ss.Range()

	for _, tu := range []tuple.Tuple{
		tuple.New(nil),
		tuple.New([]byte{0x00}),
		tuple.New("shard"),
		tuple.New(-1),
		tuple.New(0),
		tuple.New(uint64(1) << 60),
	} {
		key, err := ss.Pack(tu)
		require.NoError(t, err)
		assert.LessOrEqual(t, begin.Compare(key), 0, "begin <= %s", key)
		assert.Positive(t, end.Compare(key), "end > %s", key)
	}

	assert.Positive(t, begin.Compare(ss.Prefix()))
}

func TestFromTuple(t *testing.T) {
	ss, err := FromTuple(tuple.New("app", 1))
	require.NoError(t, err)

	key, err := ss.Pack(tuple.New("x"))
	require.NoError(t, err)
	assert.True(t, ss.Contains(key))

	packed, err := tuple.New("app", 1).Pack()
	require.NoError(t, err)
	assert.Equal(t, 0, ss.Prefix().Compare(packed))
}

func TestPrefixIsMemoized(t *testing.T) {
	buf := []byte("mut")
	ss := New(slice.FromBytes(buf))
	buf[0] = 'X'
	assert.Equal(t, "mut", string(ss.Prefix().Bytes()))
}
