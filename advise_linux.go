//go:build linux

package bloomfilter

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom tells the kernel reads will not be sequential, which turns off
// readahead for the single-word accesses of FileBitStore.
func adviseRandom(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
