package overlap

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/block"
)

// Result is the outcome of checking one slice.
type Result int

const (
	// Unknown means the slice could not be checked: its label is unreadable
	// or EFI, or its index is outside the table.
	Unknown Result = iota - 1
	Clear
	Overlaps
)

func (r Result) String() string {
	switch r {
	case Clear:
		return "clear"
	case Overlaps:
		return "overlaps"
	}
	return "unknown"
}

// Detector checks slices against the other partitions of their disk.
type Detector struct {
	// ReadVTOC reads the legacy label behind a raw slice path. It defaults
	// to block.ReadVTOC.
	ReadVTOC func(path string) (*block.VTOC, int, error)
}

func NewDetector() *Detector {
	return &Detector{ReadVTOC: block.ReadVTOC}
}

// Overlaps checks the slice at path, given in block or raw form. Partitions
// starting at sector 0 span the disk and are never reported, nor are empty
// ones.
func (d *Detector) Overlaps(path string) (Result, error) {
	raw := au.RawPath(path)
	vtoc, idx, err := d.ReadVTOC(raw)
	if err != nil {
		return Unknown, au.NewError(au.ErrIO, path, err)
	}
	if idx < 0 || idx >= len(vtoc.Partitions) {
		return Unknown, au.NewError(au.ErrParse, path, errors.Errorf("slice index %d out of range", idx))
	}

	own := vtoc.Partitions[idx]
	if own.Size == 0 {
		return Clear, nil
	}
	for i, p := range vtoc.Partitions {
		if i == idx || p.Size == 0 {
			continue
		}
		if p.End() < uint64(own.Start) || own.End() < uint64(p.Start) {
			continue
		}
		if p.Start == 0 {
			continue
		}
		logrus.WithFields(logrus.Fields{
			"path":      path,
			"partition": i,
		}).Info("overlap detected")
		return Overlaps, nil
	}
	return Clear, nil
}

// CheckSlices returns the subset of paths that overlap another partition,
// in input order. Slices that cannot be checked are left out of the result;
// their failures are returned together.
func (d *Detector) CheckSlices(paths []string) ([]string, error) {
	var res []string
	var errs []error
	for _, path := range paths {
		r, err := d.Overlaps(path)
		if err != nil {
			logrus.Debugf("cannot check %s: %v", path, err)
			errs = append(errs, err)
			continue
		}
		if r == Overlaps {
			res = append(res, path)
		}
	}
	return res, utilerrors.NewAggregate(errs)
}
