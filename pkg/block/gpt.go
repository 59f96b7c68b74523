package block

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/pkg/errors"
)

const (
	gptSignature      = "EFI PART"
	gptHeaderSize     = 92
	gptMinEntrySize   = 128
	// gptMaxArrayBytes bounds the entry array: 128 entries of 128 bytes
	gptMaxArrayBytes = 128 * 128
	gptEntriesLBAOff  = 72
	gptEntryCountOff  = 80
	gptEntrySizeOff   = 84
	gptEntryFirstOff  = 32
	gptEntryLastOff   = 40
	gptEntryNameOff   = 56
	gptEntryNameBytes = 72

	// EFIReservedSlice is the slice index holding the reserved partition
	// of an EFI labelled disk.
	EFIReservedSlice = 7
)

// ErrNoGPT is returned when the sector does not hold a GPT header.
var ErrNoGPT = errors.New("no EFI label")

// GPTHeader is the part of the GPT header needed to locate partitions.
type GPTHeader struct {
	Revision   uint32
	EntriesLBA uint64
	EntryCount uint32
	EntrySize  uint32
}

// GPTEntry is one partition entry. FirstLBA and LastLBA are inclusive.
type GPTEntry struct {
	TypeGUID [16]byte
	FirstLBA uint64
	LastLBA  uint64
	Name     string
}

// Used reports whether the entry describes a partition.
func (e GPTEntry) Used() bool {
	return e.TypeGUID != [16]byte{}
}

// Sectors is the number of logical blocks covered by the entry.
func (e GPTEntry) Sectors() uint64 {
	if !e.Used() || e.LastLBA < e.FirstLBA {
		return 0
	}
	return e.LastLBA - e.FirstLBA + 1
}

// ParseGPTHeader decodes the header found at LBA 1.
func ParseGPTHeader(sector []byte) (*GPTHeader, error) {
	if len(sector) < gptHeaderSize {
		return nil, errors.Errorf("gpt header too short: %d bytes", len(sector))
	}
	if !bytes.Equal(sector[:8], []byte(gptSignature)) {
		return nil, ErrNoGPT
	}
	le := binary.LittleEndian
	h := &GPTHeader{
		Revision:   le.Uint32(sector[8:]),
		EntriesLBA: le.Uint64(sector[gptEntriesLBAOff:]),
		EntryCount: le.Uint32(sector[gptEntryCountOff:]),
		EntrySize:  le.Uint32(sector[gptEntrySizeOff:]),
	}
	if h.EntrySize < gptMinEntrySize {
		return nil, errors.Errorf("gpt entry size %d out of range", h.EntrySize)
	}
	if uint64(h.EntryCount)*uint64(h.EntrySize) > gptMaxArrayBytes {
		return nil, errors.Errorf("gpt entry array of %d x %d bytes exceeds %d bytes", h.EntryCount, h.EntrySize, gptMaxArrayBytes)
	}
	return h, nil
}

// ParseGPTEntries decodes the partition entry array described by h.
func ParseGPTEntries(h *GPTHeader, buf []byte) ([]GPTEntry, error) {
	need := int(h.EntryCount) * int(h.EntrySize)
	if len(buf) < need {
		return nil, errors.Errorf("gpt entry array truncated: have %d bytes, need %d", len(buf), need)
	}
	le := binary.LittleEndian
	entries := make([]GPTEntry, h.EntryCount)
	for i := range entries {
		raw := buf[i*int(h.EntrySize):]
		copy(entries[i].TypeGUID[:], raw[:16])
		entries[i].FirstLBA = le.Uint64(raw[gptEntryFirstOff:])
		entries[i].LastLBA = le.Uint64(raw[gptEntryLastOff:])
		entries[i].Name = decodeUTF16Name(raw[gptEntryNameOff : gptEntryNameOff+gptEntryNameBytes])
	}
	return entries, nil
}

func decodeUTF16Name(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// EncodeGPT lays out a header at LBA 1 and the entry array at LBA 2 for the
// given block size. The protective MBR and CRCs are left zeroed.
func EncodeGPT(blockSize int, entries []GPTEntry) []byte {
	entriesLBA := 2
	size := entriesLBA*blockSize + len(entries)*gptMinEntrySize
	buf := make([]byte, size)
	le := binary.LittleEndian

	hdr := buf[blockSize:]
	copy(hdr, gptSignature)
	le.PutUint32(hdr[8:], 0x00010000)
	le.PutUint32(hdr[12:], gptHeaderSize)
	le.PutUint64(hdr[gptEntriesLBAOff:], uint64(entriesLBA))
	le.PutUint32(hdr[gptEntryCountOff:], uint32(len(entries)))
	le.PutUint32(hdr[gptEntrySizeOff:], gptMinEntrySize)

	for i, e := range entries {
		raw := buf[entriesLBA*blockSize+i*gptMinEntrySize:]
		copy(raw[:16], e.TypeGUID[:])
		le.PutUint64(raw[gptEntryFirstOff:], e.FirstLBA)
		le.PutUint64(raw[gptEntryLastOff:], e.LastLBA)
		for j, u := range utf16.Encode([]rune(e.Name)) {
			if 2*j+1 >= gptEntryNameBytes {
				break
			}
			le.PutUint16(raw[gptEntryNameOff+2*j:], u)
		}
	}
	return buf
}
