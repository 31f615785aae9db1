package slice

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tidekv/tidekv/pkg/common"
)

const upperHexDigits = "0123456789ABCDEF"

// Escape returns a human-readable ASCII rendering of the slice. Bytes
// below 0x20, at or above 0x7F, or equal to '<' are emitted as <HH>
// with two uppercase hex digits; every other byte is emitted literally.
func (s Slice) Escape() string {
	if s.count == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(s.count)
	for i := 0; i < s.count; i++ {
		b := s.buffer[s.offset+i]
		if b < 0x20 || b >= 0x7F || b == '<' {
			sb.WriteByte('<')
			sb.WriteByte(upperHexDigits[b>>4])
			sb.WriteByte(upperHexDigits[b&0xF])
			sb.WriteByte('>')
		} else {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// Unescape is the strict inverse of Escape on well-formed input.
// A malformed escape sequence yields an error. The empty string yields
// an empty slice.
func Unescape(s string) (Slice, error) {
	if len(s) == 0 {
		return Empty, nil
	}
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '<' {
			buf = append(buf, c)
			i++
			continue
		}
		if i+3 >= len(s) || s[i+3] != '>' {
			return Nil, common.NewCodecError(fmt.Sprintf("slice: malformed escape sequence at offset %d", i))
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return Nil, common.NewCodecError(fmt.Sprintf("slice: invalid hex digits in escape sequence at offset %d", i))
		}
		buf = append(buf, hi<<4|lo)
		i += 4
	}
	return FromBytes(buf), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ToHex returns two lowercase hex characters per byte of the window.
func (s Slice) ToHex() string {
	return hex.EncodeToString(s.Bytes())
}

// FromHex parses a hex string of even length, mixed case allowed.
// The empty string yields an empty slice.
func FromHex(s string) (Slice, error) {
	if len(s) == 0 {
		return Empty, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Nil, common.NewCodecError(fmt.Sprintf("slice: invalid hex string: %s", err))
	}
	return FromBytes(b), nil
}

// ToBase64 returns the standard base64 rendering of the window.
func (s Slice) ToBase64() string {
	return base64.StdEncoding.EncodeToString(s.Bytes())
}

// FromBase64 parses a standard base64 string.
// The empty string yields an empty slice.
func FromBase64(s string) (Slice, error) {
	if len(s) == 0 {
		return Empty, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Nil, common.NewCodecError(fmt.Sprintf("slice: invalid base64 string: %s", err))
	}
	return FromBytes(b), nil
}
