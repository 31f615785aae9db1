package tuple

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packHex packs a tuple and returns the lowercase hex of the encoding.
func packHex(t *testing.T, items ...Element) string {
	t.Helper()
	packed, err := New(items...).Pack()
	require.NoError(t, err)
	return packed.ToHex()
}

// TestPackKnownVectors pins the wire format byte for byte.
func TestPackKnownVectors(t *testing.T) {
	assert.Equal(t, "0268656c6c6f20776f726c6400", packHex(t, "hello world"))

	assert.Equal(t, "0268656c6c6f20776f726c6400157b", packHex(t, "hello world", 123))

	// Booleans encode as integers: false is the zero tag.
	assert.Equal(t, "0268656c6c6f20776f726c6400157b14", packHex(t, "hello world", 123, false))

	// Payloads are big-endian: the most significant magnitude byte
	// leads, which is what makes the encoding order-preserving.
	assert.Equal(t, "187fffffff", packHex(t, int32(math.MaxInt32)))
	assert.Equal(t, "107fffffff", packHex(t, int32(math.MinInt32)))

	assert.Equal(t, "1c7fffffffffffffff", packHex(t, int64(math.MaxInt64)))
	assert.Equal(t, "0c7fffffffffffffff", packHex(t, int64(math.MinInt64)))

	assert.Equal(t, "13fe", packHex(t, -1))
	assert.Equal(t, "1300", packHex(t, -255))
	assert.Equal(t, "12feff", packHex(t, -256))

	// Byte strings escape embedded NULs as 00 FF.
	assert.Equal(t, "0268656c6c6f20776f726c6400157b14017b014200ff2a00",
		packHex(t, "hello world", 123, false, []byte{0x7B, 0x01, 0x42, 0x00, 0x2A}))
}

func TestPackIntegerWidths(t *testing.T) {
	assert.Equal(t, "14", packHex(t, 0))
	assert.Equal(t, "1501", packHex(t, 1))
	assert.Equal(t, "15ff", packHex(t, 255))
	assert.Equal(t, "160100", packHex(t, 256))
	assert.Equal(t, "16ffff", packHex(t, 65535))
	assert.Equal(t, "17010000", packHex(t, 65536))

	// true is the integer one.
	assert.Equal(t, "1501", packHex(t, true))

	// Unsigned values above MaxInt64 still fit the 8-byte positive tag.
	assert.Equal(t, "1cffffffffffffffff", packHex(t, uint64(math.MaxUint64)))

	assert.Equal(t, "00", packHex(t, nil))
}

func TestRoundTrip(t *testing.T) {
	tuples := []Tuple{
		EmptyTuple,
		New(nil),
		New("hello world"),
		New(""),
		New("with\x00nul"),
		New([]byte{}),
		New([]byte{0x00}),
		New([]byte{0x00, 0xFF, 0x00}),
		New(0),
		New(-1), New(1),
		New(-255), New(-256), New(255), New(256),
		New(int64(math.MaxInt64)), New(int64(math.MinInt64)),
		New(uint64(math.MaxUint64)),
		New(true), New(false),
		New("hello world", 123, false, []byte{0x7B, 0x01, 0x42, 0x00, 0x2A}),
		New(nil, "mixed", -42, []byte("raw"), uint64(7)),
	}

	for _, tu := range tuples {
		packed, err := tu.Pack()
		require.NoError(t, err)

		back, err := Unpack(packed)
		require.NoError(t, err)
		assert.True(t, tu.Equal(back), "round trip of %s gave %s", tu, back)
		assert.Equal(t, tu.Count(), back.Count())
	}
}

// TestOrderPreservation checks that byte order of the packed forms
// agrees with the element-wise tuple order over an ordered corpus.
func TestOrderPreservation(t *testing.T) {
	// Strictly increasing under the tuple ordering: nil sorts before
	// byte strings, byte strings before unicode strings, strings before
	// integers, integers numerically.
	ordered := []Tuple{
		EmptyTuple,
		New(nil),
		New(nil, 0),
		New([]byte{}),
		New([]byte{0x00}),
		New([]byte{0x01}),
		New([]byte("abc")),
		New(""),
		New("a"),
		New("ab"),
		New("b"),
		New(int64(math.MinInt64)),
		New(-65536),
		New(-256),
		New(-255),
		New(-2),
		New(-1),
		New(0),
		New(1),
		New(2),
		New(255),
		New(256),
		New(65536),
		New(int64(math.MaxInt64)),
		New(uint64(math.MaxInt64) + 1),
		New(uint64(math.MaxUint64)),
		New(uint64(math.MaxUint64), "tail"),
	}

	packed := make([][]byte, len(ordered))
	for i, tu := range ordered {
		p, err := tu.Pack()
		require.NoError(t, err)
		packed[i] = p.Bytes()
	}

	for i := 0; i < len(ordered); i++ {
		for j := 0; j < len(ordered); j++ {
			byteOrder := sign(compareBytes(packed[i], packed[j]))
			tupleOrder := sign(ordered[i].Compare(ordered[j]))
			wantOrder := sign(i - j)
			assert.Equal(t, wantOrder, byteOrder, "byte order of %s vs %s", ordered[i], ordered[j])
			assert.Equal(t, wantOrder, tupleOrder, "tuple order of %s vs %s", ordered[i], ordered[j])
		}
	}
}

func TestNegativeIndexing(t *testing.T) {
	tu := New("a", 1, "b", 2, "c")
	n := tu.Count()
	for k := 1; k <= n; k++ {
		want, err := tu.Get(n - k)
		require.NoError(t, err)
		got, err := tu.Get(-k)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := tu.Get(5)
	assert.Error(t, err)
	_, err = tu.Get(-6)
	assert.Error(t, err)
}

func TestStructuralOperations(t *testing.T) {
	base := New("a", 1)

	appended := base.Append("b")
	assert.Equal(t, 2, base.Count())
	assert.Equal(t, 3, appended.Count())
	assert.True(t, appended.Equal(New("a", 1, "b")))

	joined := base.Concat(New(2, "c"))
	assert.True(t, joined.Equal(New("a", 1, 2, "c")))
	assert.True(t, base.Concat(EmptyTuple).Equal(base))
	assert.True(t, EmptyTuple.Concat(base).Equal(base))

	full, err := joined.Slice(0, joined.Count())
	assert.NoError(t, err)
	assert.True(t, full.Equal(joined))

	empty, err := joined.Slice(2, 2)
	assert.NoError(t, err)
	assert.Equal(t, 0, empty.Count())

	mid, err := joined.Slice(1, 3)
	assert.NoError(t, err)
	assert.True(t, mid.Equal(New(1, 2)))

	// Negative range indices count from the end.
	tail, err := joined.Slice(-2, 4)
	assert.NoError(t, err)
	assert.True(t, tail.Equal(New(2, "c")))

	_, err = joined.Slice(0, 5)
	assert.Error(t, err)
	_, err = joined.Slice(3, 1)
	assert.Error(t, err)
}

func TestSimilarValueEquality(t *testing.T) {
	assert.True(t, New(int32(123)).Equal(New(int64(123))))
	assert.True(t, New(int8(7)).Equal(New(uint64(7))))
	assert.True(t, New(true).Equal(New(1)))
	assert.True(t, New(false).Equal(New(0)))
	assert.False(t, New(123).Equal(New("123")))
	assert.False(t, New([]byte("a")).Equal(New("a")))
	assert.False(t, New(1, 2).Equal(New(1)))

	// Hash is consistent with equality and order-sensitive.
	assert.Equal(t, New(int32(123)).Hash(), New(int64(123)).Hash())
	assert.NotEqual(t, New(1, 2).Hash(), New(2, 1).Hash())
}

func TestFirstLast(t *testing.T) {
	tu := New("head", 1, "tail")

	first, err := tu.First()
	assert.NoError(t, err)
	assert.Equal(t, "head", first)

	last, err := tu.Last()
	assert.NoError(t, err)
	assert.Equal(t, "tail", last)

	_, err = EmptyTuple.First()
	assert.Error(t, err)
	_, err = EmptyTuple.Last()
	assert.Error(t, err)
}

func TestTypedAccessors(t *testing.T) {
	tu := New("s", 42, []byte{0xAA}, true, uint64(math.MaxUint64))

	s, err := tu.GetString(0)
	assert.NoError(t, err)
	assert.Equal(t, "s", s)

	i, err := tu.GetInt(1)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), i)

	b, err := tu.GetBytes(2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAA}, b)

	v, err := tu.GetBool(3)
	assert.NoError(t, err)
	assert.True(t, v)

	// Widening works, narrowing past int64 fails.
	_, err = tu.GetInt(4)
	assert.Error(t, err)

	_, err = tu.GetString(1)
	assert.Error(t, err)
	_, err = tu.GetInt(0)
	assert.Error(t, err)
	_, err = tu.GetBytes(0)
	assert.Error(t, err)
	_, err = tu.GetBool(1)
	assert.Error(t, err)
}

func TestPackUnsupportedKind(t *testing.T) {
	_, err := New(3.14).Pack()
	assert.Error(t, err)
	assert.Panics(t, func() { New(struct{}{}).MustPack() })
}

func TestWriterPrimitives(t *testing.T) {
	w := NewWriter()
	assert.Equal(t, 0, w.Len())

	require.NoError(t, w.WriteByte(0x01))
	w.WriteRaw([]byte{0x02, 0x03})
	assert.Equal(t, 3, w.Len())

	first := w.ToSlice()
	require.NoError(t, w.WriteByte(0xFF))

	// ToSlice snapshots are independent of later appends.
	assert.Equal(t, "010203", first.ToHex())
	assert.Equal(t, "010203ff", w.ToSlice().ToHex())
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if d := int(a[i]) - int(b[i]); d != 0 {
			return d
		}
	}
	return len(a) - len(b)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
