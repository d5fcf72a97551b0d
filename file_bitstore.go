package bloomfilter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"os"
)

// fileReserveBytes are appended to every bit file.
const fileReserveBytes = 8

// FileBitSize returns the number of addressable bits of a file store created
// for numBits bits: every whole 32-bit word of the file, reserve included.
// A trailing partial word is never addressed.
func FileBitSize(numBits uint64) uint64 { return fileBytes(numBits) / 4 * 32 }

// fileBytes is ceil(numBits/8) plus the reserve.
func fileBytes(numBits uint64) uint64 {
	return (numBits+7)/8 + fileReserveBytes
}

// FileBitStore keeps the bit array in a file of big-endian 32-bit words,
// word i at byte offset 4*i. Every Set is a read-modify-write of one word.
//
// FileBitStore is NOT safe for concurrent writers. Two goroutines calling Set
// on bits of the same word can lose one of the updates, and BitCount is only
// exact with a single writer. Concurrent Get calls with no writer are fine.
// Callers that need concurrent writes must serialize them.
type FileBitStore struct {
	f       *os.File
	path    string
	numBits uint64
	count   uint64
}

// OpenFileBitStore opens the bit file at path, creating it if missing.
//
// A new file is sized for numBits. An existing file must have exactly the
// size a store of numBits would have; its set bits are counted on open.
func OpenFileBitStore(path string, numBits uint64) (*FileBitStore, error) {
	if numBits == 0 {
		return nil, fmt.Errorf("%w: bit store needs at least one bit", ErrInvalidConfig)
	}
	if numBits > maxBits {
		return nil, fmt.Errorf("%w: %d bits exceed the file size limit", ErrInvalidConfig, numBits)
	}
	size := fileBytes(numBits)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, path, err)
	}
	s := &FileBitStore{f: f, path: path, numBits: FileBitSize(numBits)}
	if err := s.init(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	// advisory only
	_ = adviseRandom(f)
	return s, nil
}

func (s *FileBitStore) init(size int64) error {
	fi, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrStorage, s.path, err)
	}
	switch fi.Size() {
	case 0:
		if err := s.f.Truncate(size); err != nil {
			return fmt.Errorf("%w: size %s to %d bytes: %w", ErrStorage, s.path, size, err)
		}
		return nil
	case size:
		n, err := popcount(io.NewSectionReader(s.f, 0, int64(s.numBits/8)))
		if err != nil {
			return fmt.Errorf("%w: scan %s: %w", ErrStorage, s.path, err)
		}
		s.count = n
		return nil
	default:
		return fmt.Errorf("%w: %s is %d bytes, want %d", ErrStorage, s.path, fi.Size(), size)
	}
}

func popcount(r io.Reader) (uint64, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	var n uint64
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n += uint64(bits.OnesCount8(b))
	}
}

// Path returns the file the store writes to.
func (s *FileBitStore) Path() string { return s.path }

func (s *FileBitStore) Set(index uint64) (bool, error) {
	off, mask, err := s.locate(index)
	if err != nil {
		return false, err
	}
	word, err := s.readWord(off)
	if err != nil {
		return false, err
	}
	if word&mask != 0 {
		return false, nil
	}
	if err := s.writeWord(off, word|mask); err != nil {
		return false, err
	}
	s.count++
	return true, nil
}

func (s *FileBitStore) Get(index uint64) (bool, error) {
	off, mask, err := s.locate(index)
	if err != nil {
		return false, err
	}
	word, err := s.readWord(off)
	if err != nil {
		return false, err
	}
	return word&mask != 0, nil
}

func (s *FileBitStore) locate(index uint64) (int64, uint32, error) {
	if s.f == nil {
		return 0, 0, ErrClosed
	}
	if index >= s.numBits {
		return 0, 0, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, index, s.numBits)
	}
	return int64(index>>5) * 4, uint32(1) << (index & 31), nil
}

func (s *FileBitStore) readWord(off int64) (uint32, error) {
	var buf [4]byte
	if _, err := s.f.ReadAt(buf[:], off); err != nil {
		return 0, fmt.Errorf("%w: read %s at %d: %w", ErrStorage, s.path, off, err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (s *FileBitStore) writeWord(off int64, word uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], word)
	if _, err := s.f.WriteAt(buf[:], off); err != nil {
		return fmt.Errorf("%w: write %s at %d: %w", ErrStorage, s.path, off, err)
	}
	return nil
}

func (s *FileBitStore) BitSize() uint64 { return s.numBits }

func (s *FileBitStore) BitCount() uint64 { return s.count }

// Sync commits the file contents to stable storage.
func (s *FileBitStore) Sync() error {
	if s.f == nil {
		return ErrClosed
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", ErrStorage, s.path, err)
	}
	return nil
}

// Close releases the file handle. Calling Close again is a no-op.
func (s *FileBitStore) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorage, s.path, err)
	}
	return nil
}
