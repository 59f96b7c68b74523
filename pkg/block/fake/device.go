package fake

import (
	"os"

	"github.com/samqfs/au-discovery/pkg/block"
)

// UUID of a Solaris usr partition, used as a generic "in use" entry type.
var SolarisUsrGUID = [16]byte{0xc3, 0x8c, 0x89, 0x6a, 0xd2, 0x1d, 0xb2, 0x11, 0x99, 0xa6, 0x08, 0x00, 0x20, 0x73, 0x66, 0x31}

// WriteVTOCDevice writes a synthetic disk node at path carrying a legacy
// label with the given partitions.
func WriteVTOCDevice(path string, sectorSize uint16, parts ...block.Partition) error {
	v := &block.VTOC{Volume: "fake", SectorSize: sectorSize, Partitions: parts}
	buf := make([]byte, 2*block.DefaultSectorSize)
	copy(buf[block.VTOCOffset:], v.Encode())
	return os.WriteFile(path, buf, 0644)
}

// WriteGPTDevice writes a synthetic disk node at path carrying an EFI label
// with 512 byte blocks.
func WriteGPTDevice(path string, entries ...block.GPTEntry) error {
	return os.WriteFile(path, block.EncodeGPT(block.DefaultSectorSize, entries), 0644)
}

// WriteVolume writes a node of size bytes with no label.
func WriteVolume(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(size)
}
