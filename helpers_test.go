package bloomfilter

import (
	"fmt"
	"sort"
	"time"
)

var rng = uint64(time.Now().UnixNano())

// returns random number, modifies the seed
func splitmix64(seed *uint64) uint64 {
	*seed = *seed + 0x9E3779B97F4A7C15
	z := *seed
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// recordingStore is a map-backed BitStore that remembers the order of Set
// calls.
type recordingStore struct {
	size uint64
	bits map[uint64]bool
	sets []uint64
	err  error
}

func newRecordingStore(size uint64) *recordingStore {
	return &recordingStore{size: size, bits: map[uint64]bool{}}
}

func (s *recordingStore) Set(i uint64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if i >= s.size {
		return false, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	s.sets = append(s.sets, i)
	if s.bits[i] {
		return false, nil
	}
	s.bits[i] = true
	return true, nil
}

func (s *recordingStore) Get(i uint64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.bits[i], nil
}

func (s *recordingStore) BitSize() uint64  { return s.size }
func (s *recordingStore) BitCount() uint64 { return uint64(len(s.bits)) }

func (s *recordingStore) setBits() []uint64 {
	out := make([]uint64, 0, len(s.bits))
	for i := range s.bits {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
