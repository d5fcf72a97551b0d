package bloomfilter

import (
	"fmt"
	"math"
)

// DefaultFpp is the false-positive probability used by NewDefault and
// OpenFileDefault. It yields 5 hash functions for any n >= 10.
const DefaultFpp = 0.03

// MaxHashFunctions is the largest k a filter can be persisted with.
const MaxHashFunctions = 255

const maxBits = 1 << 62

// OptimalNumOfBits returns the bit array length m that gives false-positive
// probability p after n insertions: ceil(-n ln p / (ln 2)^2). n is raised to 1
// and p == 0 is replaced by the smallest positive float64.
func OptimalNumOfBits(n uint64, p float64) uint64 {
	if n == 0 {
		n = 1
	}
	if p == 0 {
		p = math.SmallestNonzeroFloat64
	}
	return uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
}

// OptimalNumOfHashFunctions returns max(1, round(m/n * ln 2)).
func OptimalNumOfHashFunctions(n, m uint64) int {
	if n == 0 {
		n = 1
	}
	return max(1, int(math.Round(float64(m)/float64(n)*math.Ln2)))
}

// sizeFor validates the sizing parameters and returns (m, k).
func sizeFor(expectedInsertions uint64, fpp float64) (uint64, int, error) {
	if math.IsNaN(fpp) || fpp <= 0 || fpp >= 1 {
		return 0, 0, fmt.Errorf("%w: false positive probability %v not in (0, 1)", ErrInvalidConfig, fpp)
	}
	n := max(expectedInsertions, 1)
	if -float64(n)*math.Log(fpp)/(math.Ln2*math.Ln2) >= maxBits {
		return 0, 0, fmt.Errorf("%w: %d insertions at fpp %v need too many bits", ErrInvalidConfig, n, fpp)
	}
	m := OptimalNumOfBits(n, fpp)
	k := OptimalNumOfHashFunctions(n, m)
	if k > MaxHashFunctions {
		return 0, 0, fmt.Errorf("%w: %d hash functions exceed %d", ErrInvalidConfig, k, MaxHashFunctions)
	}
	return m, k, nil
}
