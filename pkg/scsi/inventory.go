package scsi

import (
	"path/filepath"

	ghwblock "github.com/jaypipes/ghw/pkg/block"
	ghwutil "github.com/jaypipes/ghw/pkg/util"

	"github.com/samqfs/au-discovery/pkg/au"
)

// Inventory maps a device node to an identity known to the host without
// issuing commands to the device.
type Inventory interface {
	Lookup(path string) *au.Identity
}

// HostInventory is a snapshot of the host's block inventory keyed by kernel
// device name.
type HostInventory struct {
	disks map[string]*au.Identity
}

// LoadHostInventory snapshots the disks the host kernel knows about.
func LoadHostInventory() (*HostInventory, error) {
	info, err := ghwblock.New()
	if err != nil {
		return nil, err
	}
	inv := &HostInventory{disks: map[string]*au.Identity{}}
	for _, d := range info.Disks {
		id := &au.Identity{
			Vendor:  known(d.Vendor),
			Product: known(d.Model),
		}
		if wwn := known(d.WWN); wwn != "" {
			id.DeviceID = wwn
		} else {
			id.DeviceID = known(d.SerialNumber)
		}
		inv.disks[d.Name] = id
		for _, p := range d.Partitions {
			partID := *id
			inv.disks[p.Name] = &partID
		}
	}
	return inv, nil
}

func known(value string) string {
	if value == ghwutil.UNKNOWN {
		return ""
	}
	return value
}

func (i *HostInventory) Lookup(path string) *au.Identity {
	id, ok := i.disks[filepath.Base(path)]
	if !ok || id.DeviceID == "" {
		return nil
	}
	c := *id
	return &c
}
