//go:build linux

package block

import (
	"os"

	"golang.org/x/sys/unix"
)

// logicalBlockSize asks the driver for the logical block size; regular
// files and devices that refuse the ioctl get 512.
func logicalBlockSize(f *os.File) uint64 {
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || size <= 0 {
		return DefaultSectorSize
	}
	return uint64(size)
}
