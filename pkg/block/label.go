package block

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Label is the partition table read from a device. Exactly one of VTOC and
// GPT is set.
type Label struct {
	VTOC      *VTOC
	GPT       []GPTEntry
	BlockSize uint64
}

// labelIOError marks a label read that failed at the device level rather
// than because of the label contents.
type labelIOError struct {
	err error
}

func (e *labelIOError) Error() string { return e.err.Error() }
func (e *labelIOError) Unwrap() error { return e.err }

// IsLabelIOError reports whether err came from reading the device.
func IsLabelIOError(err error) bool {
	var ioErr *labelIOError
	return errors.As(err, &ioErr)
}

// openReadOnly opens a device node for probing without blocking on it.
func openReadOnly(path string) (*os.File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}

func readSector(f *os.File, off int64, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := f.ReadAt(buf, off)
	if n == size {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		return buf[:n], io.ErrUnexpectedEOF
	}
	return nil, &labelIOError{err: err}
}

// ReadLabel reads the legacy label of f, falling back to the EFI label when
// the legacy one is not present.
func ReadLabel(f *os.File) (*Label, error) {
	sector, err := readSector(f, VTOCOffset, DefaultSectorSize)
	if IsLabelIOError(err) {
		return nil, err
	}
	if err == nil {
		vtoc, verr := ParseVTOC(sector)
		if verr == nil {
			return &Label{VTOC: vtoc, BlockSize: vtoc.BytesPerSector()}, nil
		}
		if verr != ErrNoVTOC {
			return nil, verr
		}
	}
	return readGPT(f)
}

func readGPT(f *os.File) (*Label, error) {
	bs := logicalBlockSize(f)
	sector, err := readSector(f, int64(bs), int(bs))
	if IsLabelIOError(err) {
		return nil, err
	}
	if err != nil {
		return nil, errors.New("cannot find VTOC or EFI label")
	}
	hdr, err := ParseGPTHeader(sector)
	if err == ErrNoGPT {
		return nil, errors.New("cannot find VTOC or EFI label")
	}
	if err != nil {
		return nil, err
	}
	if hdr.EntriesLBA > math.MaxInt64/bs {
		return nil, errors.Errorf("gpt entry array lba %d out of range", hdr.EntriesLBA)
	}
	buf, err := readSector(f, int64(hdr.EntriesLBA*bs), int(hdr.EntryCount*hdr.EntrySize))
	if IsLabelIOError(err) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "gpt entry array")
	}
	entries, err := ParseGPTEntries(hdr, buf)
	if err != nil {
		return nil, err
	}
	return &Label{GPT: entries, BlockSize: bs}, nil
}

// SliceIndex extracts N from a device name ending in "sN".
func SliceIndex(path string) (int, error) {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, 's')
	if i < 0 || i == len(base)-1 {
		return -1, errors.Errorf("%s does not name a slice", path)
	}
	idx, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return -1, errors.Errorf("%s does not name a slice", path)
	}
	return idx, nil
}

// ReadVTOC returns the legacy label of the disk behind path and the index
// of path's own slice. EFI labelled disks yield ErrNoVTOC.
func ReadVTOC(path string) (*VTOC, int, error) {
	idx, err := SliceIndex(path)
	if err != nil {
		return nil, -1, err
	}
	f, err := openReadOnly(path)
	if err != nil {
		return nil, -1, err
	}
	defer f.Close()

	label, err := ReadLabel(f)
	if err != nil {
		return nil, -1, err
	}
	if label.VTOC == nil {
		return nil, -1, ErrNoVTOC
	}
	return label.VTOC, idx, nil
}
