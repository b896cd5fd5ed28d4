package cram

import (
	"fmt"
	"io"

	"github.com/xsamtools/xsamtools/internal/binary"
)

// RangeError is returned when a value cannot be represented by a variable
// length integer encoding.
type RangeError struct {
	Value uint64
	Bits  int
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("value %d does not fit in an unsigned %d-bit integer", err.Value, err.Bits)
}

// ReadITF8 decodes a single ITF-8 value from r.  The count of leading ones in
// the first byte gives the number of bytes that follow it.
func ReadITF8(r io.Reader) (uint32, error) {
	first, err := binary.ReadUint8(r)
	if err != nil {
		return 0, fmt.Errorf("reading first byte: %w", err)
	}

	b := make([]byte, countLeadingOnes(first, 4)+1)
	b[0] = first
	if _, err := io.ReadFull(r, b[1:]); err != nil {
		return 0, fmt.Errorf("reading remaining bytes: %w", err)
	}

	switch n := len(b); n {
	case 1:
		return uint32(b[0]), nil
	case 2:
		return uint32(b[0]&0x3f)<<8 | uint32(b[1]), nil
	case 3:
		return uint32(b[0]&0x1f)<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
	case 4:
		return uint32(b[0]&0x0f)<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
	case 5:
		// The last byte only contributes its low nibble.
		return uint32(b[0]&0x0f)<<28 | uint32(b[1])<<20 | uint32(b[2])<<12 | uint32(b[3])<<4 | uint32(b[4]&0x0f), nil
	default:
		panic(fmt.Sprintf("invalid ITF8 length: %d", n))
	}
}

// EncodeITF8 returns the shortest ITF-8 encoding of n.  A *RangeError is
// returned if n does not fit in 32 bits.
func EncodeITF8(n uint64) ([]byte, error) {
	switch {
	case n < 1<<7:
		return []byte{byte(n)}, nil
	case n < 1<<14:
		return []byte{byte(n>>8) | 0x80, byte(n)}, nil
	case n < 1<<21:
		return []byte{byte(n>>16) | 0xc0, byte(n >> 8), byte(n)}, nil
	case n < 1<<28:
		return []byte{byte(n>>24) | 0xe0, byte(n >> 16), byte(n >> 8), byte(n)}, nil
	case n < 1<<32:
		return []byte{byte(n>>28) | 0xf0, byte(n >> 20), byte(n >> 12), byte(n >> 4), byte(n)}, nil
	}
	return nil, &RangeError{Value: n, Bits: 32}
}

// ReadLTF8 decodes a single LTF-8 value from r.
func ReadLTF8(r io.Reader) (uint64, error) {
	first, err := binary.ReadUint8(r)
	if err != nil {
		return 0, fmt.Errorf("reading first byte: %w", err)
	}

	ones := countLeadingOnes(first, 8)
	b := make([]byte, ones+1)
	b[0] = first
	if _, err := io.ReadFull(r, b[1:]); err != nil {
		return 0, fmt.Errorf("reading remaining bytes: %w", err)
	}

	// The 8 and 9 byte forms (0xfe and 0xff) carry no payload in the first byte.
	v := uint64(b[0] & (0xff >> uint(ones+1)))
	for _, c := range b[1:] {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// EncodeLTF8 returns the shortest LTF-8 encoding of n.  Every uint64 value is
// representable.
func EncodeLTF8(n uint64) []byte {
	ones := 0
	for ones < 8 && n >= 1<<uint(7*(ones+1)) {
		ones++
	}

	b := make([]byte, ones+1)
	b[0] = ^byte(0xff>>uint(ones)) | byte(n>>uint(8*ones))
	for i := 1; i <= ones; i++ {
		b[i] = byte(n >> uint(8*(ones-i)))
	}
	return b
}

// ReadITF8Array decodes size ITF-8 values from r.  If size is negative, the
// number of values is itself read from r as an ITF-8 value first.
func ReadITF8Array(r io.Reader, size int) ([]uint32, error) {
	if size < 0 {
		n, err := ReadITF8(r)
		if err != nil {
			return nil, fmt.Errorf("reading array size: %w", err)
		}
		size = int(n)
	}

	var values []uint32
	for i := 0; i < size; i++ {
		v, err := ReadITF8(r)
		if err != nil {
			return nil, fmt.Errorf("reading array element %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func countLeadingOnes(b byte, limit int) int {
	for i := 0; i < limit; i++ {
		if b&0x80 == 0 {
			return i
		}
		b <<= 1
	}
	return limit
}
