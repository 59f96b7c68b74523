package resolver

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/scsi"
)

// Placeholder marks a disk that has no device on this host.
const Placeholder = "nodev"

// Disk is one device of a shared filesystem as another host knows it.
type Disk struct {
	Path     string       `json:"path" yaml:"path"`
	Name     string       `json:"name,omitempty" yaml:"name,omitempty"`
	Identity *au.Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
}

func (d *Disk) deviceID() string {
	if d.Identity == nil {
		return ""
	}
	return d.Identity.DeviceID
}

func isObjectPath(path string) bool {
	return strings.HasPrefix(filepath.Base(path), scsi.ObjectNodePrefix)
}

// ResolvePaths rewrites the path and name of every disk to the path of the
// discovered unit carrying the same device. Slices must also agree on their
// trailing partition character; two object devices match on identity
// alone. Disks with a placeholder path are left alone. The first disk
// without a match fails the whole call and no disk is modified.
func ResolvePaths(disks []*Disk, units []*au.Unit) error {
	byID := map[string][]*au.Unit{}
	seen := sets.New[string]()
	for _, u := range units {
		id := u.DeviceID()
		if id == "" || seen.Has(u.Key()) {
			continue
		}
		seen.Insert(u.Key())
		byID[id] = append(byID[id], u)
	}

	matches := make([]*au.Unit, len(disks))
	for i, d := range disks {
		if d.Path == "" || d.Path == Placeholder {
			continue
		}
		m := match(d, byID[d.deviceID()])
		if m == nil {
			return &au.Error{Kind: au.ErrNoMatch, Path: d.Path, Err: errors.New("no discovered device carries this identity")}
		}
		matches[i] = m
	}

	for i, d := range disks {
		m := matches[i]
		if m == nil {
			continue
		}
		if d.Path != m.Path {
			logrus.WithFields(logrus.Fields{
				"from": d.Path,
				"to":   m.Path,
			}).Info("resolved device path")
		}
		d.Path = m.Path
		d.Name = m.Path
	}
	return nil
}

func match(d *Disk, candidates []*au.Unit) *au.Unit {
	for _, u := range candidates {
		if u.Kind == au.ObjectDevice && isObjectPath(d.Path) {
			return u
		}
		if au.SliceSuffix(u.Path) == au.SliceSuffix(d.Path) {
			return u
		}
	}
	return nil
}
