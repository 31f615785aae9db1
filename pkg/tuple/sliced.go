package tuple

import (
	"fmt"
	"sync"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/slice"
)

// SlicedTuple is a lazy view over an encoded slice. The boundaries of
// the elements are indexed in a single pass on first demand and cached
// as a flat offset array; element payloads are decoded only when asked.
//
// A sliced tuple has two states: unindexed and indexed. The first call
// that needs sizes or offsets performs the transition; it is idempotent
// and safe for concurrent use. The tuple is immutable thereafter.
type SlicedTuple struct {
	data slice.Slice

	once sync.Once
	// offsets[i] is the start of element i; offsets[count] is the total
	// length, so element i occupies data[offsets[i]:offsets[i+1]).
	offsets []int
	err     error
}

// FromSlice creates a sliced tuple over the encoded slice without
// validating or decoding it. The slice is not copied.
func FromSlice(data slice.Slice) *SlicedTuple {
	return &SlicedTuple{data: data}
}

// index walks the encoding once and caches the element boundaries.
func (st *SlicedTuple) index() error {
	st.once.Do(func() {
		buf := st.data.Bytes()
		offsets := []int{0}
		pos := 0
		for pos < len(buf) {
			next, err := skipElement(buf, pos)
			if err != nil {
				st.err = err
				return
			}
			offsets = append(offsets, next)
			pos = next
		}
		st.offsets = offsets
	})
	return st.err
}

// Count returns the number of elements in the encoding.
func (st *SlicedTuple) Count() (int, error) {
	if err := st.index(); err != nil {
		return 0, err
	}
	return len(st.offsets) - 1, nil
}

// resolve maps a possibly negative element index to its boundaries.
func (st *SlicedTuple) resolve(i int) (start, end int, err error) {
	if err := st.index(); err != nil {
		return 0, 0, err
	}
	n := len(st.offsets) - 1
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, 0, common.NewIndexError(fmt.Sprintf("tuple: index %d out of range for %d elements", i, n))
	}
	return st.offsets[i], st.offsets[i+1], nil
}

// GetSlice returns the raw encoded bytes of element i, tag included.
// A negative i counts from the end.
func (st *SlicedTuple) GetSlice(i int) (slice.Slice, error) {
	start, end, err := st.resolve(i)
	if err != nil {
		return slice.Nil, err
	}
	return st.data.Window(start, end-start), nil
}

// Get decodes and returns the element at index i.
// A negative i counts from the end.
func (st *SlicedTuple) Get(i int) (Element, error) {
	start, _, err := st.resolve(i)
	if err != nil {
		return nil, err
	}
	e, _, err := decodeElement(st.data.Bytes(), start)
	return e, err
}

// GetInt decodes the element at index i as a signed 64-bit integer.
func (st *SlicedTuple) GetInt(i int) (int64, error) {
	e, err := st.Get(i)
	if err != nil {
		return 0, err
	}
	return coerceInt(e)
}

// GetUint decodes the element at index i as an unsigned 64-bit integer.
func (st *SlicedTuple) GetUint(i int) (uint64, error) {
	e, err := st.Get(i)
	if err != nil {
		return 0, err
	}
	return coerceUint(e)
}

// GetString decodes the element at index i as a string.
func (st *SlicedTuple) GetString(i int) (string, error) {
	e, err := st.Get(i)
	if err != nil {
		return "", err
	}
	return coerceString(e)
}

// GetBytes decodes the element at index i as a byte string.
func (st *SlicedTuple) GetBytes(i int) ([]byte, error) {
	e, err := st.Get(i)
	if err != nil {
		return nil, err
	}
	return coerceBytes(e)
}

// GetBool decodes the element at index i as a boolean.
func (st *SlicedTuple) GetBool(i int) (bool, error) {
	e, err := st.Get(i)
	if err != nil {
		return false, err
	}
	return coerceBool(e)
}

// First decodes the first element. Fails on an empty tuple.
func (st *SlicedTuple) First() (Element, error) {
	n, err := st.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, common.NewIndexError("tuple: first element of an empty tuple")
	}
	return st.Get(0)
}

// Last decodes the last element. Fails on an empty tuple.
func (st *SlicedTuple) Last() (Element, error) {
	n, err := st.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, common.NewIndexError("tuple: last element of an empty tuple")
	}
	return st.Get(n - 1)
}

// Decode materializes every element into a constructed tuple.
func (st *SlicedTuple) Decode() (Tuple, error) {
	n, err := st.Count()
	if err != nil {
		return EmptyTuple, err
	}
	items := make([]Element, n)
	for i := 0; i < n; i++ {
		e, err := st.Get(i)
		if err != nil {
			return EmptyTuple, err
		}
		items[i] = e
	}
	return Tuple{items: items}, nil
}
