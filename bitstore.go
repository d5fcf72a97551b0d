package bloomfilter

// BitStore is the bit array a filter writes into.
//
// Bits are only ever turned on. The length is fixed when the store is
// created. The error results exist for stores that do I/O; the in-memory
// store never fails for an in-range index.
type BitStore interface {
	// Set turns on the bit at index and reports whether it was previously
	// clear.
	Set(index uint64) (bool, error)
	// Get reports whether the bit at index is set.
	Get(index uint64) (bool, error)
	// BitSize is the number of addressable bits.
	BitSize() uint64
	// BitCount estimates the number of set bits.
	BitCount() uint64
}
