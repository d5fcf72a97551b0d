package bloomfilter

import "errors"

var (
	// ErrInvalidConfig is returned when sizing parameters cannot produce a filter.
	ErrInvalidConfig = errors.New("bloomfilter: invalid configuration")
	// ErrStorage wraps I/O failures of the file-backed store.
	ErrStorage = errors.New("bloomfilter: storage error")
	// ErrIncompatible is returned when merging filters that fail IsCompatible.
	ErrIncompatible = errors.New("bloomfilter: incompatible filters")
	// ErrUnsupported is returned for copy and merge on the file-backed store.
	ErrUnsupported = errors.New("bloomfilter: operation not supported by store")
	// ErrClosed is returned by a file-backed store after Close.
	ErrClosed = errors.New("bloomfilter: store is closed")
	// ErrOutOfRange is returned for a bit index at or past BitSize.
	ErrOutOfRange = errors.New("bloomfilter: bit index out of range")

	// ErrUnknownStrategy is returned for a strategy ordinal with no variant.
	ErrUnknownStrategy = errors.New("bloomfilter: unknown strategy ordinal")
	// ErrCorrupt is returned when a serialized filter cannot be decoded.
	ErrCorrupt = errors.New("bloomfilter: corrupt serialized filter")
)
