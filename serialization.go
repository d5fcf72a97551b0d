package bloomfilter

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// Serialized form, all integers big endian:
//
//	int8   strategy ordinal
//	uint8  number of hash functions
//	int32  number of 64-bit words
//	uint64 words...
const serialHeaderBytes = 6

// WriteTo writes the filter in its serialized form. Only in-memory filters
// can be serialized; a file-backed filter already is its own persisted form.
//
// Concurrent Put calls during WriteTo produce a rolling snapshot.
func (f *Filter[T]) WriteTo(w io.Writer) (int64, error) {
	bits, ok := f.bits.(*ConcurrentBitStore)
	if !ok {
		return 0, fmt.Errorf("%w: serialize %T", ErrUnsupported, f.bits)
	}
	words := bits.Snapshot().Words()
	if len(words) > maxWords {
		return 0, fmt.Errorf("%w: %d words exceed the serialized form", ErrUnsupported, len(words))
	}

	buf := make([]byte, 0, serialHeaderBytes+8*len(words))
	buf = append(buf, byte(f.strategy.Ordinal()), uint8(f.numHashFunctions))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(words)))
	for _, word := range words {
		buf = binary.BigEndian.AppendUint64(buf, word)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom decodes a filter written by WriteTo. funnel and the hasher option
// must match the ones the filter was written with; the strategy is taken
// from the stream.
func ReadFrom[T any](r io.Reader, funnel Funnel[T], opts ...Option) (*Filter[T], error) {
	o := buildOptions(opts)

	var header [serialHeaderBytes]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	strategy, err := StrategyFromOrdinal(int8(header[0]))
	if err != nil {
		return nil, err
	}
	k := int(header[1])
	if k == 0 {
		return nil, fmt.Errorf("%w: zero hash functions", ErrCorrupt)
	}
	numWords := int32(binary.BigEndian.Uint32(header[2:6]))
	if numWords <= 0 {
		return nil, fmt.Errorf("%w: word count %d", ErrCorrupt, numWords)
	}

	// Grow as words arrive so a corrupt count cannot force a huge allocation.
	words := make([]uint64, 0, min(int(numWords), 1<<16))
	var word [8]byte
	for i := int32(0); i < numWords; i++ {
		if _, err := io.ReadFull(r, word[:]); err != nil {
			return nil, fmt.Errorf("%w: word %d of %d: %w", ErrCorrupt, i, numWords, err)
		}
		words = append(words, binary.BigEndian.Uint64(word[:]))
	}

	o.strategy = strategy
	f, err := newFilter(newConcurrentBitStoreFromWords(words), k, funnel, o)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("bloom filter decoded",
		"bits", f.BitSize(),
		"hash_functions", k,
		"strategy", strategy.String(),
	)
	return f, nil
}

// SaveFile writes the serialized filter to path. The file is replaced
// atomically, so readers see either the old or the new contents.
func (f *Filter[T]) SaveFile(path string) error {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrStorage, path, err)
	}
	f.logger.Debug("bloom filter saved", "path", path, "bytes", buf.Len())
	return nil
}

// LoadFile reads a filter saved with SaveFile.
func LoadFile[T any](path string, funnel Funnel[T], opts ...Option) (*Filter[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, path, err)
	}
	defer file.Close()
	return ReadFrom(bufio.NewReader(file), funnel, opts...)
}
