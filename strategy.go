package bloomfilter

import (
	"fmt"
	"math"
)

// Strategy derives the k bit positions of an element from its 128-bit hash.
//
// A strategy's ordinal is written into every persisted filter. Existing
// values must never be renumbered or removed; a new scheme gets a new
// constant. Non-negative ordinals are reserved for the strategies declared
// here.
type Strategy int8

const (
	// StrategyMitz32 combines the two 32-bit halves of the low 64 hash bits
	// as h1 + i*h2 (Kirsch and Mitzenmacher, "Less Hashing, Same Performance").
	StrategyMitz32 Strategy = 0
	// StrategyMitz64 combines both 64-bit halves of the hash as h1 + i*h2,
	// computed incrementally.
	StrategyMitz64 Strategy = 1
)

// StrategyFromOrdinal returns the strategy persisted as ordinal.
func StrategyFromOrdinal(ordinal int8) (Strategy, error) {
	s := Strategy(ordinal)
	switch s {
	case StrategyMitz32, StrategyMitz64:
		return s, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownStrategy, ordinal)
}

// Ordinal is the persisted identity of the strategy.
func (s Strategy) Ordinal() int8 { return int8(s) }

func (s Strategy) String() string {
	switch s {
	case StrategyMitz32:
		return "MITZ_32"
	case StrategyMitz64:
		return "MITZ_64"
	}
	return fmt.Sprintf("Strategy(%d)", int8(s))
}

// Put sets the numHashFunctions bits selected by the hash (lo, hi) and
// reports whether any of them was previously clear.
func (s Strategy) Put(lo, hi uint64, numHashFunctions int, bits BitStore) (bool, error) {
	switch s {
	case StrategyMitz32:
		return putMitz32(lo, numHashFunctions, bits)
	case StrategyMitz64:
		return putMitz64(lo, hi, numHashFunctions, bits)
	}
	return false, fmt.Errorf("%w: %d", ErrUnknownStrategy, int8(s))
}

// MightContain reports whether all numHashFunctions bits selected by the hash
// (lo, hi) are set. It stops at the first clear bit.
func (s Strategy) MightContain(lo, hi uint64, numHashFunctions int, bits BitStore) (bool, error) {
	switch s {
	case StrategyMitz32:
		return containsMitz32(lo, numHashFunctions, bits)
	case StrategyMitz64:
		return containsMitz64(lo, hi, numHashFunctions, bits)
	}
	return false, fmt.Errorf("%w: %d", ErrUnknownStrategy, int8(s))
}

func mitz32Index(h1, h2 int32, i int, bitSize uint64) uint64 {
	combined := h1 + int32(i)*h2
	if combined < 0 {
		combined = ^combined
	}
	return uint64(combined) % bitSize
}

func putMitz32(lo uint64, k int, bits BitStore) (bool, error) {
	bitSize := bits.BitSize()
	h1, h2 := int32(lo), int32(lo>>32)
	changed := false
	for i := 1; i <= k; i++ {
		set, err := bits.Set(mitz32Index(h1, h2, i, bitSize))
		if err != nil {
			return changed, err
		}
		changed = changed || set
	}
	return changed, nil
}

func containsMitz32(lo uint64, k int, bits BitStore) (bool, error) {
	bitSize := bits.BitSize()
	h1, h2 := int32(lo), int32(lo>>32)
	for i := 1; i <= k; i++ {
		ok, err := bits.Get(mitz32Index(h1, h2, i, bitSize))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func putMitz64(lo, hi uint64, k int, bits BitStore) (bool, error) {
	bitSize := bits.BitSize()
	changed := false
	combined := lo
	for i := 0; i < k; i++ {
		set, err := bits.Set((combined & math.MaxInt64) % bitSize)
		if err != nil {
			return changed, err
		}
		changed = changed || set
		combined += hi
	}
	return changed, nil
}

func containsMitz64(lo, hi uint64, k int, bits BitStore) (bool, error) {
	bitSize := bits.BitSize()
	combined := lo
	for i := 0; i < k; i++ {
		ok, err := bits.Get((combined & math.MaxInt64) % bitSize)
		if err != nil || !ok {
			return false, err
		}
		combined += hi
	}
	return true, nil
}
