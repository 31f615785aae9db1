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

package slice

import (
	"fmt"

	"github.com/tidekv/tidekv/pkg/common"
)

// Slice is an immutable view (buffer, offset, count) over a byte buffer.
//
// A Slice never mutates its window and treats the backing buffer as
// read-only. Multiple slices may alias the same buffer; copying the
// triple is cheap and copies no bytes. Use Memoize to detach a slice
// into exclusively owned bytes.
//
// The zero value is the Nil slice: it carries no buffer at all and is
// distinct from Empty, which has a buffer of length zero.
type Slice struct {
	buffer []byte
	offset int
	count  int
}

var emptyBuffer = make([]byte, 0)

// Nil is the slice that carries no buffer. HasValue is false.
var Nil = Slice{}

// Empty is the canonical slice of length zero. HasValue is true.
var Empty = Slice{buffer: emptyBuffer}

// FromBytes returns a slice that is a view over the whole buffer.
// The buffer is not copied; the caller must not mutate it afterwards.
// A nil buffer yields Nil, a zero-length buffer yields an empty slice.
func FromBytes(b []byte) Slice {
	if b == nil {
		return Nil
	}
	return Slice{buffer: b, offset: 0, count: len(b)}
}

// FromBytesWindow returns a view over buffer[offset : offset+count].
// The buffer is not copied.
// REQUIRES: 0 <= offset <= len(b) and 0 <= count <= len(b)-offset. Panics otherwise.
func FromBytesWindow(b []byte, offset, count int) Slice {
	if b == nil {
		if offset == 0 && count == 0 {
			return Nil
		}
		panic(common.NewIndexError("slice: window over nil buffer"))
	}
	if offset < 0 || offset > len(b) || count < 0 || count > len(b)-offset {
		panic(common.NewIndexError(fmt.Sprintf("slice: window [%d, %d+%d) out of range for buffer of %d bytes", offset, offset, count, len(b))))
	}
	return Slice{buffer: b, offset: offset, count: count}
}

// Copy returns a slice backed by a fresh copy of b.
// A nil input yields Nil.
func Copy(b []byte) Slice {
	if b == nil {
		return Nil
	}
	if len(b) == 0 {
		return Empty
	}
	tmp := make([]byte, len(b))
	copy(tmp, b)
	return Slice{buffer: tmp, offset: 0, count: len(tmp)}
}

// Zero returns a slice over a freshly allocated zero-filled buffer of n bytes.
// REQUIRES: n >= 0. Panics otherwise.
func Zero(n int) Slice {
	if n < 0 {
		panic(common.NewIndexError(fmt.Sprintf("slice: negative size %d", n)))
	}
	if n == 0 {
		return Empty
	}
	return Slice{buffer: make([]byte, n), offset: 0, count: n}
}

// FromString returns a slice over the UTF-8 bytes of s.
func FromString(s string) Slice {
	if len(s) == 0 {
		return Empty
	}
	return FromBytes([]byte(s))
}

// FromASCII returns a slice in which every rune of s is truncated to a
// single byte, the way a single-byte code page would render it.
func FromASCII(s string) Slice {
	if len(s) == 0 {
		return Empty
	}
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		buf = append(buf, byte(r))
	}
	return Slice{buffer: buf, offset: 0, count: len(buf)}
}

// HasValue reports whether the slice carries a buffer. False only for Nil.
func (s Slice) HasValue() bool {
	return s.buffer != nil
}

// IsEmpty reports whether the slice carries a buffer and has length zero.
func (s Slice) IsEmpty() bool {
	return s.buffer != nil && s.count == 0
}

// IsNullOrEmpty reports whether the slice is Nil or has length zero.
func (s Slice) IsNullOrEmpty() bool {
	return s.count == 0
}

// Count returns the number of bytes in the window.
func (s Slice) Count() int {
	return s.count
}

// At returns the byte at index i. A negative i counts from the end of
// the window, so At(-1) is the last byte.
// REQUIRES: -Count() <= i < Count(). Panics otherwise.
func (s Slice) At(i int) byte {
	if i < 0 {
		i += s.count
	}
	if i < 0 || i >= s.count {
		panic(common.NewIndexError(fmt.Sprintf("slice: index %d out of range for %d bytes", i, s.count)))
	}
	return s.buffer[s.offset+i]
}

// Substring returns the suffix starting at offset when offset >= 0,
// and the last |offset| bytes when offset < 0.
// REQUIRES: |offset| <= Count(). Panics otherwise.
func (s Slice) Substring(offset int) Slice {
	if offset >= 0 {
		if offset > s.count {
			panic(common.NewIndexError(fmt.Sprintf("slice: substring offset %d out of range for %d bytes", offset, s.count)))
		}
		return Slice{buffer: s.buffer, offset: s.offset + offset, count: s.count - offset}
	}
	if -offset > s.count {
		panic(common.NewIndexError(fmt.Sprintf("slice: substring offset %d out of range for %d bytes", offset, s.count)))
	}
	return Slice{buffer: s.buffer, offset: s.offset + s.count + offset, count: -offset}
}

// Window returns the sub-window of count bytes starting at offset.
// REQUIRES: offset >= 0, count >= 0 and offset+count <= Count(). Panics otherwise.
func (s Slice) Window(offset, count int) Slice {
	if offset < 0 || count < 0 || offset+count > s.count {
		panic(common.NewIndexError(fmt.Sprintf("slice: window [%d, %d) out of range for %d bytes", offset, offset+count, s.count)))
	}
	return Slice{buffer: s.buffer, offset: s.offset + offset, count: count}
}

// ReadUIntLE reads an unsigned little-endian integer of n bytes starting
// at offset: the byte at offset is the least significant.
// REQUIRES: 0 <= n <= 8 and offset+n <= Count(). Panics otherwise.
func (s Slice) ReadUIntLE(offset, n int) uint64 {
	if n < 0 || n > 8 {
		panic(common.NewIndexError(fmt.Sprintf("slice: invalid integer width %d", n)))
	}
	if offset < 0 || offset+n > s.count {
		panic(common.NewIndexError(fmt.Sprintf("slice: read [%d, %d) out of range for %d bytes", offset, offset+n, s.count)))
	}
	var value uint64
	for p := offset + n - 1; p >= offset; p-- {
		value = (value << 8) | uint64(s.buffer[s.offset+p])
	}
	return value
}

// Bytes returns the window as a []byte without copying. The result
// aliases the backing buffer and must be treated as read-only.
// Returns nil for the Nil slice.
func (s Slice) Bytes() []byte {
	if s.buffer == nil {
		return nil
	}
	return s.buffer[s.offset : s.offset+s.count]
}

// CopyBytes returns a fresh copy of the window.
// Returns nil for the Nil slice.
func (s Slice) CopyBytes() []byte {
	if s.buffer == nil {
		return nil
	}
	tmp := make([]byte, s.count)
	copy(tmp, s.buffer[s.offset:s.offset+s.count])
	return tmp
}

// Memoize returns an independent slice that exclusively owns a fresh
// copy of its bytes. This is the only way to transition from shared to
// exclusive ownership of the backing memory.
func (s Slice) Memoize() Slice {
	if s.buffer == nil {
		return Nil
	}
	if s.count == 0 {
		return Empty
	}
	return Copy(s.Bytes())
}

// Concat returns a new slice owning the concatenation of s and other.
func (s Slice) Concat(other Slice) Slice {
	if !s.HasValue() && !other.HasValue() {
		return Nil
	}
	buf := make([]byte, 0, s.count+other.count)
	buf = append(buf, s.Bytes()...)
	buf = append(buf, other.Bytes()...)
	return Slice{buffer: buf, offset: 0, count: len(buf)}
}

// Equal reports whether the two slices have the same length and
// pairwise-equal bytes. Two Nil slices are equal; Nil is not equal to
// Empty even though both hold zero bytes.
func (s Slice) Equal(other Slice) bool {
	if s.buffer == nil || other.buffer == nil {
		return (s.buffer == nil) == (other.buffer == nil)
	}
	if s.count != other.count {
		return false
	}
	for i := 0; i < s.count; i++ {
		if s.buffer[s.offset+i] != other.buffer[other.offset+i] {
			return false
		}
	}
	return true
}

// Compare returns a negative value if s orders before other, zero if
// both are Nil or both are non-Nil with equal byte contents, and a
// positive value otherwise. Bytes
// compare unsigned and lexicographically; Nil orders before every
// non-Nil slice. The sign conventions are load-bearing: stored keys
// must order identically across client implementations.
func (s Slice) Compare(other Slice) int {
	if s.buffer == nil {
		if other.buffer == nil {
			return 0
		}
		return -1
	}
	if other.buffer == nil {
		return 1
	}
	n := s.count
	if other.count < n {
		n = other.count
	}
	for i := 0; i < n; i++ {
		if d := int(s.buffer[s.offset+i]) - int(other.buffer[other.offset+i]); d != 0 {
			return d
		}
	}
	return s.count - other.count
}

const (
	fnvOffsetBasis uint32 = 0x811C9DC5
	fnvPrime       uint32 = 0x01000193
)

// Hash returns the 32-bit FNV-1a hash of the window. A Nil slice hashes
// to zero. Equal slices by byte content produce equal hashes.
func (s Slice) Hash() uint32 {
	if s.buffer == nil {
		return 0
	}
	h := fnvOffsetBasis
	for i := 0; i < s.count; i++ {
		h ^= uint32(s.buffer[s.offset+i])
		h *= fnvPrime
	}
	return h
}

// String renders the slice for diagnostics using the Escape encoding.
func (s Slice) String() string {
	if s.buffer == nil {
		return "<nil>"
	}
	return s.Escape()
}
