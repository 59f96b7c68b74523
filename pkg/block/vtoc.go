package block

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

const (
	// VTOCSanity marks a valid legacy label.
	VTOCSanity = 0x600DDEEE
	// VTOCOffset is the byte offset of the label on the disk (sector 1).
	VTOCOffset = 512
	// MaxVTOCParts is the number of partition slots a label carries.
	MaxVTOCParts = 16
	// DefaultSectorSize is used when a label leaves the sector size unset.
	DefaultSectorSize = 512

	vtocSanityOff   = 12
	vtocVersionOff  = 16
	vtocVolumeOff   = 20
	vtocSectorOff   = 28
	vtocNPartsOff   = 30
	vtocPartsOff    = 72
	vtocPartSize    = 12
	vtocMinimumSize = vtocPartsOff + MaxVTOCParts*vtocPartSize
)

// ErrNoVTOC is returned when the sector does not hold a legacy label.
var ErrNoVTOC = errors.New("no VTOC label")

// Partition is one slot of a legacy label. Start and Size count sectors.
type Partition struct {
	Tag   uint16
	Flag  uint16
	Start uint32
	Size  uint32
}

// End is the last sector covered by the partition.
func (p Partition) End() uint64 {
	return uint64(p.Start) + uint64(p.Size) - 1
}

// VTOC is the decoded legacy partition table.
type VTOC struct {
	Version    uint32
	Volume     string
	SectorSize uint16
	Partitions []Partition
}

// BytesPerSector returns the label's sector size, defaulting to 512.
func (v *VTOC) BytesPerSector() uint64 {
	if v.SectorSize == 0 {
		return DefaultSectorSize
	}
	return uint64(v.SectorSize)
}

// ParseVTOC decodes a little-endian legacy label from sector.
func ParseVTOC(sector []byte) (*VTOC, error) {
	if len(sector) < vtocMinimumSize {
		return nil, errors.Errorf("label sector too short: %d bytes", len(sector))
	}
	le := binary.LittleEndian
	if le.Uint32(sector[vtocSanityOff:]) != VTOCSanity {
		return nil, ErrNoVTOC
	}

	nparts := int(le.Uint16(sector[vtocNPartsOff:]))
	if nparts > MaxVTOCParts {
		return nil, errors.Errorf("label declares %d partitions, at most %d fit", nparts, MaxVTOCParts)
	}
	v := &VTOC{
		Version:    le.Uint32(sector[vtocVersionOff:]),
		Volume:     strings.TrimRight(string(sector[vtocVolumeOff:vtocVolumeOff+8]), "\x00 "),
		SectorSize: le.Uint16(sector[vtocSectorOff:]),
		Partitions: make([]Partition, nparts),
	}
	for i := 0; i < nparts; i++ {
		off := vtocPartsOff + i*vtocPartSize
		v.Partitions[i] = Partition{
			Tag:   le.Uint16(sector[off:]),
			Flag:  le.Uint16(sector[off+2:]),
			Start: le.Uint32(sector[off+4:]),
			Size:  le.Uint32(sector[off+8:]),
		}
	}
	return v, nil
}

// Encode writes the label back into a 512 byte sector.
func (v *VTOC) Encode() []byte {
	sector := make([]byte, DefaultSectorSize)
	le := binary.LittleEndian
	le.PutUint32(sector[vtocSanityOff:], VTOCSanity)
	le.PutUint32(sector[vtocVersionOff:], v.Version)
	copy(sector[vtocVolumeOff:vtocVolumeOff+8], v.Volume)
	le.PutUint16(sector[vtocSectorOff:], v.SectorSize)
	le.PutUint16(sector[vtocNPartsOff:], uint16(len(v.Partitions)))
	for i, p := range v.Partitions {
		if i >= MaxVTOCParts {
			break
		}
		off := vtocPartsOff + i*vtocPartSize
		le.PutUint16(sector[off:], p.Tag)
		le.PutUint16(sector[off+2:], p.Flag)
		le.PutUint32(sector[off+4:], p.Start)
		le.PutUint32(sector[off+8:], p.Size)
	}
	return sector
}
