// Package bloomfilter implements Bloom filters over a pluggable bit store:
// a lock-free in-memory array for concurrent use, or a file of big-endian
// words that survives restarts and can exceed memory.
//
// A filter never reports an inserted element as absent. It reports an
// element that was never inserted as present with a probability close to
// the fpp it was sized for, as long as no more than the expected number of
// elements have been inserted.
package bloomfilter

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Filter is a Bloom filter of elements of type T.
//
// A filter backed by a ConcurrentBitStore is safe for concurrent use. A
// filter backed by a FileBitStore inherits its single-writer restriction.
type Filter[T any] struct {
	bits             BitStore
	numHashFunctions int
	funnel           Funnel[T]
	strategy         Strategy
	hasher           Hasher128
	logger           *slog.Logger
}

// New creates an in-memory filter sized for expectedInsertions elements at
// false-positive probability fpp. fpp must be in (0, 1).
func New[T any](funnel Funnel[T], expectedInsertions uint64, fpp float64, opts ...Option) (*Filter[T], error) {
	o := buildOptions(opts)
	numBits, k, err := sizeFor(expectedInsertions, fpp)
	if err != nil {
		return nil, err
	}
	bits, err := NewConcurrentBitStore(numBits)
	if err != nil {
		return nil, fmt.Errorf("create bit store of %d bits: %w", numBits, err)
	}
	f, err := newFilter(bits, k, funnel, o)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("bloom filter created",
		"backend", "memory",
		"bits", bits.BitSize(),
		"hash_functions", k,
		"strategy", o.strategy.String(),
	)
	return f, nil
}

// NewDefault creates an in-memory filter sized for expectedInsertions
// elements at DefaultFpp.
func NewDefault[T any](funnel Funnel[T], expectedInsertions uint64, opts ...Option) (*Filter[T], error) {
	return New(funnel, expectedInsertions, DefaultFpp, opts...)
}

// OpenFile creates or reopens a file-backed filter at path. Reopening must use
// the same funnel, expectedInsertions, fpp and options the file was created
// with; a size mismatch is reported as ErrStorage.
//
// The filter owns the file handle until Close.
func OpenFile[T any](funnel Funnel[T], path string, expectedInsertions uint64, fpp float64, opts ...Option) (*Filter[T], error) {
	o := buildOptions(opts)
	numBits, k, err := sizeFor(expectedInsertions, fpp)
	if err != nil {
		return nil, err
	}
	bits, err := OpenFileBitStore(path, numBits)
	if err != nil {
		return nil, fmt.Errorf("create file bit store of %d bits: %w", numBits, err)
	}
	f, err := newFilter(bits, k, funnel, o)
	if err != nil {
		bits.Close()
		return nil, err
	}
	f.logger.Debug("bloom filter opened",
		"backend", "file",
		"path", path,
		"bits", bits.BitSize(),
		"bits_set", bits.BitCount(),
		"hash_functions", k,
		"strategy", o.strategy.String(),
	)
	return f, nil
}

// OpenFileDefault is OpenFile at DefaultFpp.
func OpenFileDefault[T any](funnel Funnel[T], path string, expectedInsertions uint64, opts ...Option) (*Filter[T], error) {
	return OpenFile(funnel, path, expectedInsertions, DefaultFpp, opts...)
}

func newFilter[T any](bits BitStore, k int, funnel Funnel[T], o options) (*Filter[T], error) {
	if funnel == nil {
		return nil, fmt.Errorf("%w: nil funnel", ErrInvalidConfig)
	}
	if k < 1 || k > MaxHashFunctions {
		return nil, fmt.Errorf("%w: %d hash functions not in [1, %d]", ErrInvalidConfig, k, MaxHashFunctions)
	}
	if _, err := StrategyFromOrdinal(o.strategy.Ordinal()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &Filter[T]{
		bits:             bits,
		numHashFunctions: k,
		funnel:           funnel,
		strategy:         o.strategy,
		hasher:           o.hasher,
		logger:           o.logger,
	}, nil
}

func (f *Filter[T]) hash(x T) (uint64, uint64) {
	var scratch [64]byte
	return f.hasher.Sum128(f.funnel.Funnel(scratch[:0], x))
}

// Put inserts x. It returns true if any bit changed, in which case this is
// definitely the first insertion of x. False means x might have been
// inserted before. Put always returns the opposite of what MightContain
// would have returned just before the call.
func (f *Filter[T]) Put(x T) (bool, error) {
	lo, hi := f.hash(x)
	return f.strategy.Put(lo, hi, f.numHashFunctions, f.bits)
}

// MightContain reports whether x might have been inserted. False means it
// definitely was not.
func (f *Filter[T]) MightContain(x T) (bool, error) {
	lo, hi := f.hash(x)
	return f.strategy.MightContain(lo, hi, f.numHashFunctions, f.bits)
}

// ExpectedFpp is the probability that MightContain returns true for an
// element that was never inserted, given the current fill ratio.
func (f *Filter[T]) ExpectedFpp() float64 {
	return math.Pow(float64(f.bits.BitCount())/float64(f.bits.BitSize()), float64(f.numHashFunctions))
}

// ApproximateElementCount estimates the number of distinct elements
// inserted. It is reasonably accurate while the count stays below the
// expected insertions the filter was sized for.
func (f *Filter[T]) ApproximateElementCount() uint64 {
	bitSize := float64(f.bits.BitSize())
	fraction := float64(f.bits.BitCount()) / bitSize
	// After n inserts the expected fill is 1 - (1 - k/m)^n; solve for n.
	return roundHalfEven(-math.Log1p(-fraction) * bitSize / float64(f.numHashFunctions))
}

// roundHalfEven rounds x to the nearest integer, ties to even. Values past
// the uint64 range saturate.
func roundHalfEven(x float64) uint64 {
	r := math.RoundToEven(x)
	if r >= 1<<64 {
		return math.MaxUint64
	}
	return uint64(r)
}

// BitSize is the number of bits of the underlying store.
func (f *Filter[T]) BitSize() uint64 { return f.bits.BitSize() }

// NumHashFunctions is the number of bits set per element.
func (f *Filter[T]) NumHashFunctions() int { return f.numHashFunctions }

// Strategy is the hashing strategy the filter was created with.
func (f *Filter[T]) Strategy() Strategy { return f.strategy }

// IsCompatible reports whether other can be merged into f: a different
// filter with the same number of hash functions, bit size, strategy, funnel
// and hasher.
func (f *Filter[T]) IsCompatible(other *Filter[T]) bool {
	return other != nil &&
		f != other &&
		f.numHashFunctions == other.numHashFunctions &&
		f.BitSize() == other.BitSize() &&
		f.strategy == other.strategy &&
		sameCapability(f.funnel, other.funnel) &&
		sameCapability(f.hasher, other.hasher)
}

// PutAll merges the elements of other into f. Both filters must be in-memory
// and compatible. On error neither filter is modified.
//
// Elements inserted into other while PutAll runs may not be carried over.
func (f *Filter[T]) PutAll(other *Filter[T]) error {
	if !f.IsCompatible(other) {
		f.logger.Warn("bloom filter merge rejected", "reason", "incompatible")
		return ErrIncompatible
	}
	dst, ok := f.bits.(*ConcurrentBitStore)
	if !ok {
		return fmt.Errorf("%w: merge into %T", ErrUnsupported, f.bits)
	}
	src, ok := other.bits.(*ConcurrentBitStore)
	if !ok {
		return fmt.Errorf("%w: merge from %T", ErrUnsupported, other.bits)
	}
	return dst.MergeFrom(src)
}

// Copy returns an independent in-memory filter with the same contents and
// identity. File-backed filters cannot be copied.
func (f *Filter[T]) Copy() (*Filter[T], error) {
	bits, ok := f.bits.(*ConcurrentBitStore)
	if !ok {
		return nil, fmt.Errorf("%w: copy of %T", ErrUnsupported, f.bits)
	}
	c := *f
	c.bits = bits.Copy()
	return &c, nil
}

// Sync flushes a file-backed filter to stable storage. It is a no-op for
// in-memory filters.
func (f *Filter[T]) Sync() error {
	if s, ok := f.bits.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// Close releases the resources of the bit store, the file handle for a
// file-backed filter. The filter must not be used afterwards.
func (f *Filter[T]) Close() error {
	c, ok := f.bits.(io.Closer)
	if !ok {
		return nil
	}
	err := c.Close()
	f.logger.Debug("bloom filter closed", "error", err)
	return err
}
