package bloomfilter

import (
	"fmt"
	"math"
	"math/bits"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// ConcurrentBitStore is a lock-free in-memory bit array. Set and Get may be
// called from any number of goroutines.
//
// BitCount is an estimate: under concurrent Set calls it can lag behind the
// true number of set bits, but it never exceeds it.
type ConcurrentBitStore struct {
	data  []uint64
	count counter
}

// maxWords bounds the in-memory array, and with it the word count of the
// serialized form.
const maxWords = math.MaxInt32

// NewConcurrentBitStore allocates a store of at least numBits bits, rounded
// up to a multiple of 64. At most maxWords words can be allocated.
func NewConcurrentBitStore(numBits uint64) (*ConcurrentBitStore, error) {
	if numBits == 0 {
		return nil, fmt.Errorf("%w: bit store needs at least one bit", ErrInvalidConfig)
	}
	if numBits > maxWords*64 {
		return nil, fmt.Errorf("%w: %d bits exceed %d words", ErrInvalidConfig, numBits, maxWords)
	}
	return &ConcurrentBitStore{data: make([]uint64, (numBits+63)/64)}, nil
}

// newConcurrentBitStoreFromWords takes ownership of words.
func newConcurrentBitStoreFromWords(words []uint64) *ConcurrentBitStore {
	s := &ConcurrentBitStore{data: words}
	var n int
	for _, w := range words {
		n += bits.OnesCount64(w)
	}
	s.count.add(0, int64(n))
	return s
}

// Set turns on the bit at index and reports whether it was off. It returns
// false when another goroutine set the same bit first.
func (s *ConcurrentBitStore) Set(index uint64) (bool, error) {
	if index >= s.BitSize() {
		return false, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, index, s.BitSize())
	}
	if s.get(index) {
		return false, nil
	}
	wi := index >> 6
	mask := uint64(1) << (index & 63)
	for {
		old := atomic.LoadUint64(&s.data[wi])
		next := old | mask
		if old == next {
			// another writer got there first
			return false, nil
		}
		if atomic.CompareAndSwapUint64(&s.data[wi], old, next) {
			break
		}
	}
	s.count.add(wi, 1)
	return true, nil
}

// Get reports whether the bit at index is on.
func (s *ConcurrentBitStore) Get(index uint64) (bool, error) {
	if index >= s.BitSize() {
		return false, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, index, s.BitSize())
	}
	return s.get(index), nil
}

func (s *ConcurrentBitStore) get(index uint64) bool {
	return atomic.LoadUint64(&s.data[index>>6])&(uint64(1)<<(index&63)) != 0
}

// BitSize is the number of bits, a multiple of 64.
func (s *ConcurrentBitStore) BitSize() uint64 { return uint64(len(s.data)) * 64 }

// BitCount is the number of set bits, possibly lagging concurrent writers.
func (s *ConcurrentBitStore) BitCount() uint64 { return s.count.sum() }

// MergeFrom ORs other into s word by word.
//
// Every bit set in other when MergeFrom starts is set in s when it returns.
// Bits set in other while the merge runs may or may not be carried over.
func (s *ConcurrentBitStore) MergeFrom(other *ConcurrentBitStore) error {
	if len(s.data) != len(other.data) {
		return fmt.Errorf("%w: bit sizes %d and %d differ", ErrIncompatible, s.BitSize(), other.BitSize())
	}
	for i := range s.data {
		theirs := atomic.LoadUint64(&other.data[i])
		for {
			old := atomic.LoadUint64(&s.data[i])
			next := old | theirs
			if old == next {
				break
			}
			if atomic.CompareAndSwapUint64(&s.data[i], old, next) {
				s.count.add(uint64(i), int64(bits.OnesCount64(next)-bits.OnesCount64(old)))
				break
			}
		}
	}
	return nil
}

// Snapshot copies the words into a bitset. If other goroutines are setting
// bits meanwhile, the result is a rolling snapshot: each word is read once,
// at some point during the call.
func (s *ConcurrentBitStore) Snapshot() *bitset.BitSet {
	words := make([]uint64, len(s.data))
	for i := range s.data {
		words[i] = atomic.LoadUint64(&s.data[i])
	}
	return bitset.From(words)
}

// Copy returns an independent store holding a snapshot of s.
func (s *ConcurrentBitStore) Copy() *ConcurrentBitStore {
	return newConcurrentBitStoreFromWords(s.Snapshot().Words())
}
