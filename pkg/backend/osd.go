package backend

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/scsi"
)

// NodeObjectProber opens object device nodes to confirm a target answers.
type NodeObjectProber struct{}

// Reachable tries a read-write open, which needs the object storage service;
// when the service is not running the node is only opened for reading.
func (NodeObjectProber) Reachable(path string) error {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err == nil {
		return unix.Close(fd)
	}
	if !errors.Is(err, unix.ENXIO) && !errors.Is(err, unix.ENOTSUP) {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	fd, err = unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	return unix.Close(fd)
}

// ObjectDevices lists reachable object devices. Their identity is the GUID
// carried in the node name; capacity does not apply.
func (e *Enumerator) ObjectDevices(ctx *au.Context) []*au.Unit {
	root := e.Config.Roots.ObjectDevice
	entries, err := os.ReadDir(root)
	if err != nil {
		logrus.Debugf("object devices not available under %s: %v", root, err)
		return nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	prober := e.Objects
	if prober == nil {
		prober = NodeObjectProber{}
	}

	var units []*au.Unit
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		log := logrus.WithFields(logrus.Fields{"path": path, "backend": au.ObjectDevice})

		guid, err := scsi.ObjectGUID(root, path)
		if err != nil {
			log.Debugf("skipping: %v", err)
			continue
		}
		if err := prober.Reachable(path); err != nil {
			log.Debugf("skipping unreachable target: %v", err)
			continue
		}
		u := &au.Unit{
			Path:     path,
			Kind:     au.ObjectDevice,
			Identity: &au.Identity{DeviceID: guid},
		}
		if e.Mounts != nil && e.Mounts.IsMounted(path) {
			u.UsageLabel = au.InUseMarker
		}
		units = append(units, u)
	}
	return units
}
