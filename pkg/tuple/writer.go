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

package tuple

import (
	"github.com/tidekv/tidekv/pkg/slice"
)

// Writer is an append-only buffer that emits type-tagged,
// order-preserving element encodings. A writer is single-producer: it
// is not safe for concurrent use, but independent writers may run in
// parallel.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with a small initial capacity.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 32)}
}

// Len returns the number of bytes accumulated so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteByte appends a single raw byte. It implements io.ByteWriter and
// never returns an error.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteRaw appends raw bytes without tagging or escaping.
func (w *Writer) WriteRaw(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteNil appends the nil element.
func (w *Writer) WriteNil() {
	w.buf = append(w.buf, tagNil)
}

// WriteInt appends an order-preserving signed integer element.
//
// Zero is the bare tag 0x14. A non-zero value v is encoded as the
// minimal big-endian magnitude over b bytes: positive values carry tag
// 0x14+b followed by |v|; negative values carry tag 0x14-b followed by
// the one's complement of |v| on b bytes, which makes the byte order of
// encodings agree with the numeric order of the values.
func (w *Writer) WriteInt(v int64) {
	if v == 0 {
		w.buf = append(w.buf, tagIntZero)
		return
	}
	if v > 0 {
		w.WriteUint(uint64(v))
		return
	}
	u := uint64(-v) // wraps correctly for MinInt64
	b := minimalByteCount(u)
	w.buf = append(w.buf, tagIntZero-byte(b))
	payload := complementMask(b) - u
	w.appendBigEndian(payload, b)
}

// WriteUint appends an order-preserving non-negative integer element.
func (w *Writer) WriteUint(u uint64) {
	if u == 0 {
		w.buf = append(w.buf, tagIntZero)
		return
	}
	b := minimalByteCount(u)
	w.buf = append(w.buf, tagIntZero+byte(b))
	w.appendBigEndian(u, b)
}

// WriteBool appends a boolean element. The dialect encodes booleans as
// integers: false is the zero tag, true is the integer one.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteInt(1)
	} else {
		w.WriteInt(0)
	}
}

// WriteString appends a unicode string element: tag 0x02, the UTF-8
// payload with every 0x00 escaped as 0x00 0xFF, then the 0x00 terminator.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, tagString)
	w.writeEscaped([]byte(s))
}

// WriteByteString appends a byte-string element: tag 0x01, the payload
// with every 0x00 escaped as 0x00 0xFF, then the 0x00 terminator.
func (w *Writer) WriteByteString(p []byte) {
	w.buf = append(w.buf, tagBytes)
	w.writeEscaped(p)
}

func (w *Writer) writeEscaped(p []byte) {
	for _, c := range p {
		if c == 0x00 {
			w.buf = append(w.buf, 0x00, 0xFF)
		} else {
			w.buf = append(w.buf, c)
		}
	}
	w.buf = append(w.buf, 0x00)
}

func (w *Writer) appendBigEndian(u uint64, b int) {
	for i := b - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(u>>(8*uint(i))))
	}
}

// ToSlice returns the accumulated bytes as an independent slice. The
// writer may keep being appended to afterwards without affecting the
// returned slice.
func (w *Writer) ToSlice() slice.Slice {
	return slice.Copy(w.buf)
}

// minimalByteCount returns the minimum number of bytes needed to
// represent u. REQUIRES u != 0.
func minimalByteCount(u uint64) int {
	b := 1
	for u>>(8*uint(b)) != 0 {
		b++
	}
	return b
}

// complementMask returns 2^(8b) - 1, the all-ones value over b bytes.
func complementMask(b int) uint64 {
	if b >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * uint(b))) - 1
}
