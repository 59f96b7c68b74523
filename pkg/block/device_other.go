//go:build !linux

package block

import "os"

func logicalBlockSize(_ *os.File) uint64 {
	return DefaultSectorSize
}
