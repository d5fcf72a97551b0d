package bloomfilter

import (
	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// Hasher128 maps a byte sequence to a 128-bit hash split in two halves.
// lo is the first 64 bits of the digest, hi the second. Implementations must
// be deterministic and safe for concurrent use.
type Hasher128 interface {
	Sum128(data []byte) (lo, hi uint64)
}

// Murmur3Hasher is MurmurHash3 x64 128-bit with seed 0. It is the default,
// and the hash the on-disk filters of this package were written with.
type Murmur3Hasher struct{}

func (Murmur3Hasher) Sum128(data []byte) (uint64, uint64) {
	return murmur3.Sum128(data)
}

// xxSuffix extends the input for the second xxhash pass.
var xxSuffix = [8]byte{0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15}

// XXHasher builds 128 bits out of two xxhash64 digests: lo over data, hi
// over data followed by a fixed suffix. It is faster than Murmur3Hasher on
// long inputs but produces different bit positions, so filters built with
// one cannot be read with the other.
type XXHasher struct{}

func (XXHasher) Sum128(data []byte) (uint64, uint64) {
	d := xxhash.New()
	d.Write(data)
	lo := d.Sum64()
	d.Write(xxSuffix[:])
	return lo, d.Sum64()
}
