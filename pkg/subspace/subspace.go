// Package subspace provides prefix management for keys. A subspace
// wraps a fixed key prefix and packs tuples beneath it, so that a layer
// can confine all of its state to a well-known range of the keyspace.
package subspace

import (
	"fmt"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/slice"
	"github.com/tidekv/tidekv/pkg/tuple"
)

// Subspace is an immutable key prefix.
type Subspace struct {
	prefix slice.Slice
}

// New creates a subspace over the given prefix. The prefix bytes are
// copied so the subspace never shares backing memory with the caller.
func New(prefix slice.Slice) Subspace {
	return Subspace{prefix: prefix.Memoize()}
}

// FromTuple creates a subspace whose prefix is the packed tuple.
func FromTuple(t tuple.Tuple) (Subspace, error) {
	p, err := t.Pack()
	if err != nil {
		return Subspace{}, err
	}
	return Subspace{prefix: p}, nil
}

// Prefix returns the raw prefix of the subspace.
func (s Subspace) Prefix() slice.Slice {
	return s.prefix
}

// Pack encodes the tuple and prepends the subspace prefix, producing a
// key confined to the subspace.
func (s Subspace) Pack(t tuple.Tuple) (slice.Slice, error) {
	p, err := t.Pack()
	if err != nil {
		return slice.Nil, err
	}
	return s.prefix.Concat(p), nil
}

// PackSlice prepends the subspace prefix to already-encoded bytes.
func (s Subspace) PackSlice(sl slice.Slice) slice.Slice {
	return s.prefix.Concat(sl)
}

// Contains reports whether the key begins with the subspace prefix.
func (s Subspace) Contains(key slice.Slice) bool {
	if key.Count() < s.prefix.Count() {
		return false
	}
	return key.Window(0, s.prefix.Count()).Equal(s.prefix)
}

// Unpack strips the prefix from the key and decodes the remainder as a
// tuple. Fails if the key is not contained in the subspace.
func (s Subspace) Unpack(key slice.Slice) (tuple.Tuple, error) {
	if !s.Contains(key) {
		return tuple.EmptyTuple, common.NewCodecError(fmt.Sprintf("subspace: key %s is outside subspace %s", key, s.prefix))
	}
	return tuple.Unpack(key.Substring(s.prefix.Count()))
}

// Range returns the begin and end keys of the subspace: every packed
// key k in the subspace satisfies begin <= k < end. The bounds are
// prefix+0x00 and prefix+0xFF, which bracket every tuple encoding
// without the prefix itself being part of the range.
func (s Subspace) Range() (begin, end slice.Slice) {
	begin = s.prefix.Concat(slice.FromBytes([]byte{0x00}))
	end = s.prefix.Concat(slice.FromBytes([]byte{0xFF}))
	return begin, end
}
