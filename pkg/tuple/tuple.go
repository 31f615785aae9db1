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

// Package tuple implements the order-preserving binary tuple codec.
//
// A tuple is an ordered heterogeneous sequence of elements encoded into
// a byte string whose lexicographic byte order matches the natural
// ordering of the decoded tuples. Supported element kinds are nil, byte
// strings, unicode strings, signed and unsigned integers and booleans
// (encoded as integers).
package tuple

import (
	"fmt"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/slice"
)

// Element is a single decoded tuple element. Valid dynamic types are
// nil, []byte, slice.Slice, string, bool, and the signed/unsigned
// integer types.
type Element interface{}

// Tuple is a constructed tuple holding decoded element values.
// Tuples are immutable: structural operations return new tuples.
type Tuple struct {
	items []Element
}

// EmptyTuple is the canonical tuple of zero elements.
var EmptyTuple = Tuple{}

// New creates a tuple from the given elements.
func New(items ...Element) Tuple {
	return Tuple{items: items}
}

// Count returns the number of elements.
func (t Tuple) Count() int {
	return len(t.items)
}

// Get returns the element at index i. A negative i counts from the end,
// so Get(-1) is the last element.
func (t Tuple) Get(i int) (Element, error) {
	if i < 0 {
		i += len(t.items)
	}
	if i < 0 || i >= len(t.items) {
		return nil, common.NewIndexError(fmt.Sprintf("tuple: index %d out of range for %d elements", i, len(t.items)))
	}
	return t.items[i], nil
}

// GetInt returns the element at index i coerced to a signed 64-bit
// integer, widening narrower integer types.
func (t Tuple) GetInt(i int) (int64, error) {
	e, err := t.Get(i)
	if err != nil {
		return 0, err
	}
	return coerceInt(e)
}

// GetString returns the element at index i as a string.
func (t Tuple) GetString(i int) (string, error) {
	e, err := t.Get(i)
	if err != nil {
		return "", err
	}
	return coerceString(e)
}

// GetBytes returns the element at index i as a byte string.
func (t Tuple) GetBytes(i int) ([]byte, error) {
	e, err := t.Get(i)
	if err != nil {
		return nil, err
	}
	return coerceBytes(e)
}

// GetBool returns the element at index i as a boolean. The integers
// zero and one coerce to false and true.
func (t Tuple) GetBool(i int) (bool, error) {
	e, err := t.Get(i)
	if err != nil {
		return false, err
	}
	return coerceBool(e)
}

// First returns the first element. Fails on an empty tuple.
func (t Tuple) First() (Element, error) {
	if len(t.items) == 0 {
		return nil, common.NewIndexError("tuple: first element of an empty tuple")
	}
	return t.items[0], nil
}

// Last returns the last element. Fails on an empty tuple.
func (t Tuple) Last() (Element, error) {
	if len(t.items) == 0 {
		return nil, common.NewIndexError("tuple: last element of an empty tuple")
	}
	return t.items[len(t.items)-1], nil
}

// Append returns a new tuple of this tuple's elements followed by x.
func (t Tuple) Append(x Element) Tuple {
	items := make([]Element, len(t.items)+1)
	copy(items, t.items)
	items[len(t.items)] = x
	return Tuple{items: items}
}

// Concat returns a new tuple of this tuple's elements followed by all
// elements of other.
func (t Tuple) Concat(other Tuple) Tuple {
	if other.Count() == 0 {
		return t
	}
	if t.Count() == 0 {
		return other
	}
	items := make([]Element, 0, len(t.items)+len(other.items))
	items = append(items, t.items...)
	items = append(items, other.items...)
	return Tuple{items: items}
}

// Slice returns the sub-range [from, to) of the tuple. Negative indices
// count from the end. An empty range yields the canonical empty tuple;
// the full range returns the same tuple.
func (t Tuple) Slice(from, to int) (Tuple, error) {
	n := len(t.items)
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 || to > n || from > to {
		return EmptyTuple, common.NewIndexError(fmt.Sprintf("tuple: range [%d, %d) out of range for %d elements", from, to, n))
	}
	if from == to {
		return EmptyTuple, nil
	}
	if from == 0 && to == n {
		return t, nil
	}
	return Tuple{items: t.items[from:to]}, nil
}

// Pack encodes the tuple into an order-preserving byte string.
// Returns a TypeError for an unsupported element kind.
func (t Tuple) Pack() (slice.Slice, error) {
	w := NewWriter()
	for i, e := range t.items {
		if err := writeElement(w, e); err != nil {
			return slice.Nil, common.NewTypeError(fmt.Sprintf("tuple: cannot pack element %d: %s", i, err))
		}
	}
	return w.ToSlice(), nil
}

// MustPack is Pack for tuples that are well-typed by construction.
// Panics on an unsupported element kind.
func (t Tuple) MustPack() slice.Slice {
	s, err := t.Pack()
	if err != nil {
		panic(err)
	}
	return s
}

// Equal reports whether the two tuples have the same length and
// pairwise similar elements: numerically equal integers of different
// widths are equal, strings compare ordinally. Because the encoding is
// canonical and order-preserving, this is exactly equality of the
// packed forms.
// REQUIRES: both tuples are well-typed. Panics otherwise.
func (t Tuple) Equal(other Tuple) bool {
	if len(t.items) != len(other.items) {
		return false
	}
	return t.MustPack().Equal(other.MustPack())
}

// Compare orders two tuples element-wise, consistent with the byte
// order of their packed forms.
// REQUIRES: both tuples are well-typed. Panics otherwise.
func (t Tuple) Compare(other Tuple) int {
	return t.MustPack().Compare(other.MustPack())
}

// Hash returns an order-sensitive hash consistent with Equal.
// REQUIRES: the tuple is well-typed. Panics otherwise.
func (t Tuple) Hash() uint32 {
	return t.MustPack().Hash()
}

// String renders the tuple for diagnostics.
func (t Tuple) String() string {
	return fmt.Sprintf("%v", t.items)
}

// writeElement dispatches one element to the writer by dynamic type.
func writeElement(w *Writer, e Element) error {
	switch v := e.(type) {
	case nil:
		w.WriteNil()
	case []byte:
		w.WriteByteString(v)
	case slice.Slice:
		w.WriteByteString(v.Bytes())
	case string:
		w.WriteString(v)
	case bool:
		w.WriteBool(v)
	case int:
		w.WriteInt(int64(v))
	case int8:
		w.WriteInt(int64(v))
	case int16:
		w.WriteInt(int64(v))
	case int32:
		w.WriteInt(int64(v))
	case int64:
		w.WriteInt(v)
	case uint:
		w.WriteUint(uint64(v))
	case uint8:
		w.WriteUint(uint64(v))
	case uint16:
		w.WriteUint(uint64(v))
	case uint32:
		w.WriteUint(uint64(v))
	case uint64:
		w.WriteUint(v)
	default:
		return fmt.Errorf("unsupported element kind %T", e)
	}
	return nil
}
