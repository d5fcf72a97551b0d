package bloomfilter

import "sync/atomic"

const counterStripes = 16 // power of two

type paddedCell struct {
	atomic.Int64
	_ [56]byte // keep each cell on its own cache line
}

// counter is a striped accumulator. Writers add to the cell picked by a
// stripe key so concurrent writers on different words rarely touch the same
// cache line. sum is not a point-in-time value under concurrent adds.
type counter struct {
	cells [counterStripes]paddedCell
}

func (c *counter) add(stripe uint64, delta int64) {
	c.cells[stripe&(counterStripes-1)].Add(delta)
}

func (c *counter) sum() uint64 {
	var total int64
	for i := range c.cells {
		total += c.cells[i].Load()
	}
	return uint64(total)
}
