package bloomfilter

import (
	"encoding/binary"
	"reflect"
	"unicode/utf16"
)

// Funnel turns an element into the byte sequence that gets hashed.
//
// Funnel appends to dst and returns the extended slice. Implementations must
// be pure: the same element always produces the same bytes for the whole
// life of a filter, including across restarts of a file-backed filter.
type Funnel[T any] interface {
	Funnel(dst []byte, x T) []byte
}

// FunnelFunc adapts a function to the Funnel interface. Two FunnelFunc values
// are the same funnel only if they refer to the same function.
type FunnelFunc[T any] func(dst []byte, x T) []byte

func (fn FunnelFunc[T]) Funnel(dst []byte, x T) []byte { return fn(dst, x) }

// StringFunnel writes the raw UTF-8 bytes of a string.
type StringFunnel struct{}

func (StringFunnel) Funnel(dst []byte, s string) []byte { return append(dst, s...) }

// UTF16Funnel writes each UTF-16 code unit of a string as two little-endian
// bytes, with no length prefix.
type UTF16Funnel struct{}

func (UTF16Funnel) Funnel(dst []byte, s string) []byte {
	for _, r := range s {
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			dst = binary.LittleEndian.AppendUint16(dst, uint16(r1))
			dst = binary.LittleEndian.AppendUint16(dst, uint16(r2))
			continue
		}
		dst = binary.LittleEndian.AppendUint16(dst, uint16(r))
	}
	return dst
}

// BytesFunnel writes a byte slice as is.
type BytesFunnel struct{}

func (BytesFunnel) Funnel(dst []byte, b []byte) []byte { return append(dst, b...) }

// Uint64Funnel writes an integer as 8 little-endian bytes.
type Uint64Funnel struct{}

func (Uint64Funnel) Funnel(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// sameCapability reports whether two injected capabilities (funnels or
// hashers) are interchangeable. Comparable values compare with ==, functions
// compare by code pointer, anything else is only equal to itself by type and
// is treated as distinct.
func sameCapability(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if ta.Comparable() {
		return a == b
	}
	return false
}
