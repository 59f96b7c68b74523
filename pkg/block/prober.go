package block

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/mount"
)

// State is the outcome of probing one device node.
type State int

const (
	// StateFree is a usable unit nobody holds open.
	StateFree State = iota
	// StateInUse is a usable unit held open by another consumer.
	StateInUse
	// StateSkip is a node that never yields a unit. It is not an error.
	StateSkip
	// StateInvalid is a node that could not be probed or has no capacity.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateInUse:
		return "in-use"
	case StateSkip:
		return "skip"
	default:
		return "invalid"
	}
}

// Usable reports whether the probe produced a unit.
func (s State) Usable() bool {
	return s == StateFree || s == StateInUse
}

// Result carries the capacity in bytes and the usage state of a node.
type Result struct {
	Capacity uint64
	State    State
}

// Prober inspects device nodes. Every descriptor it opens is closed before
// Probe returns.
type Prober struct {
	Mounts mount.Table
}

func NewProber(mounts mount.Table) *Prober {
	return &Prober{Mounts: mounts}
}

// IsExcludedSlice reports names that never carry a usable slice: fdisk
// partitions (pN), whole disk nodes (dN), slices 8, 9 and above, and the
// backup slice 2 that spans the disk.
func IsExcludedSlice(path string) bool {
	n := len(path)
	if n < 3 {
		return true
	}
	return path[n-2] == 'p' ||
		path[n-2] == 'd' ||
		path[n-1] == '8' ||
		path[n-1] == '9' ||
		path[n-3] == 's' ||
		strings.HasSuffix(path, "s2")
}

// Probe determines capacity and usage of the node at path for the given
// backend kind. Skip results carry no error; invalid ones usually do.
func (p *Prober) Probe(ctx *au.Context, path string, kind au.Kind) (Result, error) {
	invalid := Result{State: StateInvalid}

	switch kind {
	case au.ZfsVolume:
		return p.probeZvol(path)
	case au.ObjectDevice:
		return invalid, au.NewError(au.ErrArgument, path, errors.New("object devices are not probed by label"))
	}

	if len(path) < 3 {
		return invalid, au.NewError(au.ErrArgument, path, errors.New("device path too short"))
	}
	if kind == au.RawSlice && IsExcludedSlice(path) {
		logrus.Debugf("%s skipped", path)
		return Result{State: StateSkip}, nil
	}
	if path[len(path)-2] == 's' && ctx.SharesFailedDisk(path) {
		return invalid, au.NewError(au.ErrIO, path, errors.Errorf("disk of %s failed earlier", ctx.LastIOErrSlice))
	}

	f, err := openReadOnly(path)
	if err != nil {
		return invalid, au.NewError(au.ErrIO, path, err)
	}

	var res Result
	if kind == au.RawSlice {
		res, err = p.sliceCapacity(ctx, path, f)
	} else {
		res, err = volumeCapacity(f)
	}
	f.Close()
	if err != nil || res.State == StateSkip {
		return res, err
	}

	if !exclusiveOpen(path) {
		res.State = StateInUse
	}
	if res.Capacity == 0 {
		res.State = StateInvalid
	}
	logrus.WithFields(logrus.Fields{
		"path":     path,
		"capacity": res.Capacity,
		"state":    res.State,
	}).Debug("probed device")
	return res, nil
}

func (p *Prober) sliceCapacity(ctx *au.Context, path string, f *os.File) (Result, error) {
	invalid := Result{State: StateInvalid}

	idx, err := SliceIndex(path)
	if err != nil {
		return invalid, au.NewError(au.ErrArgument, path, err)
	}

	label, err := ReadLabel(f)
	if err != nil {
		if IsLabelIOError(err) {
			ctx.LastIOErrSlice = path
			return invalid, au.NewError(au.ErrIO, path, err)
		}
		return invalid, au.NewError(au.ErrParse, path, err)
	}

	if label.VTOC != nil {
		if idx >= len(label.VTOC.Partitions) {
			return invalid, au.NewError(au.ErrParse, path, errors.Errorf("invalid slice index %d", idx))
		}
		part := label.VTOC.Partitions[idx]
		return Result{Capacity: uint64(part.Size) * label.VTOC.BytesPerSector()}, nil
	}

	if idx == EFIReservedSlice {
		return Result{State: StateSkip}, nil
	}
	if idx >= len(label.GPT) {
		return invalid, au.NewError(au.ErrParse, path, errors.Errorf("invalid slice index %d", idx))
	}
	return Result{Capacity: label.GPT[idx].Sectors() * label.BlockSize}, nil
}

// volumeCapacity sizes a volume node by seeking to its end.
func volumeCapacity(f io.Seeker) (Result, error) {
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil || end <= 0 {
		return Result{State: StateInvalid}, nil
	}
	return Result{Capacity: uint64(end)}, nil
}

func (p *Prober) probeZvol(path string) (Result, error) {
	f, err := openReadOnly(path)
	if err != nil {
		return Result{State: StateInvalid}, au.NewError(au.ErrIO, path, err)
	}
	res, _ := volumeCapacity(f)
	f.Close()
	if res.State == StateInvalid {
		return res, nil
	}
	if p.Mounts != nil && p.Mounts.IsMounted(path) {
		res.State = StateInUse
	}
	return res, nil
}

// exclusiveOpen reports whether the node can be opened exclusively for
// writing. Volume managers and databases keep their slices open.
func exclusiveOpen(path string) bool {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_EXCL|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		logrus.Debugf("cannot open %s exclusively: %v", path, err)
		return false
	}
	unix.Close(fd)
	return true
}
