package tuple

import (
	"fmt"
	"math"

	"github.com/tidekv/tidekv/pkg/common"
	"github.com/tidekv/tidekv/pkg/slice"
)

// Unpack decodes an encoded slice into a constructed tuple. The decoder
// is permissive on input: redundant escape sequences and non-minimal
// integer payloads are accepted and normalized on re-encoding.
// Round-trip law: Unpack(t.Pack()) is similar-value equal to t.
func Unpack(data slice.Slice) (Tuple, error) {
	if data.IsNullOrEmpty() {
		return EmptyTuple, nil
	}
	buf := data.Bytes()
	var items []Element
	pos := 0
	for pos < len(buf) {
		e, next, err := decodeElement(buf, pos)
		if err != nil {
			return EmptyTuple, err
		}
		items = append(items, e)
		pos = next
	}
	return Tuple{items: items}, nil
}

// skipElement returns the offset just past the element starting at pos
// without materializing its value.
func skipElement(buf []byte, pos int) (int, error) {
	if pos >= len(buf) {
		return 0, common.NewCodecError(fmt.Sprintf("tuple: truncated element at offset %d", pos))
	}
	tag := buf[pos]
	switch {
	case tag == tagNil:
		return pos + 1, nil

	case tag == tagBytes || tag == tagString:
		p := pos + 1
		for {
			if p >= len(buf) {
				return 0, common.NewCodecError(fmt.Sprintf("tuple: unterminated string element at offset %d", pos))
			}
			if buf[p] != 0x00 {
				p++
				continue
			}
			if p+1 < len(buf) && buf[p+1] == 0xFF {
				p += 2 // escaped NUL, not a terminator
				continue
			}
			return p + 1, nil
		}

	case tag >= tagIntNeg8 && tag <= tagIntPos8:
		b := int(tag) - int(tagIntZero)
		if b < 0 {
			b = -b
		}
		if pos+1+b > len(buf) {
			return 0, common.NewCodecError(fmt.Sprintf("tuple: truncated integer element at offset %d", pos))
		}
		return pos + 1 + b, nil
	}
	return 0, common.NewCodecError(fmt.Sprintf("tuple: unknown tag 0x%02X at offset %d", tag, pos))
}

// decodeElement materializes the element starting at pos and returns it
// along with the offset just past it.
func decodeElement(buf []byte, pos int) (Element, int, error) {
	next, err := skipElement(buf, pos)
	if err != nil {
		return nil, 0, err
	}
	tag := buf[pos]
	switch {
	case tag == tagNil:
		return nil, next, nil

	case tag == tagBytes:
		return unescapeContent(buf[pos+1 : next-1]), next, nil

	case tag == tagString:
		return string(unescapeContent(buf[pos+1 : next-1])), next, nil

	case tag == tagIntZero:
		return int64(0), next, nil

	case tag > tagIntZero:
		u := readBigEndian(buf[pos+1 : next])
		if u > math.MaxInt64 {
			return u, next, nil
		}
		return int64(u), next, nil

	default: // negative integer
		b := int(tagIntZero - tag)
		payload := readBigEndian(buf[pos+1 : next])
		u := complementMask(b) - payload // |v|
		if u > 1<<63 {
			return nil, 0, common.NewCodecError(fmt.Sprintf("tuple: negative integer at offset %d out of int64 range", pos))
		}
		if u == 1<<63 {
			return int64(math.MinInt64), next, nil
		}
		return -int64(u), next, nil
	}
}

// unescapeContent collapses every 0x00 0xFF pair back into a single
// 0x00 byte. The input excludes the tag and the terminator.
func unescapeContent(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for i := 0; i < len(p); i++ {
		out = append(out, p[i])
		if p[i] == 0x00 && i+1 < len(p) && p[i+1] == 0xFF {
			i++ // drop the 0xFF of the escape pair
		}
	}
	return out
}

func readBigEndian(p []byte) uint64 {
	var u uint64
	for _, c := range p {
		u = u<<8 | uint64(c)
	}
	return u
}
