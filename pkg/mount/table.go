package mount

import (
	"github.com/prometheus/procfs"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
)

// Table answers whether a device is currently mounted.
type Table interface {
	IsMounted(device string) bool
}

// StaticTable is a Table over a fixed set of mounted devices.
type StaticTable struct {
	devices sets.Set[string]
}

func NewStaticTable(devices ...string) *StaticTable {
	return &StaticTable{devices: sets.New(devices...)}
}

// IsMounted matches the device under both its raw and block names.
func (t *StaticTable) IsMounted(device string) bool {
	return t.devices.Has(device) || t.devices.Has(au.BlockPath(device)) || t.devices.Has(au.RawPath(device))
}

// LoadProcTable snapshots the live mount table of this process' mount
// namespace.
func LoadProcTable() (*StaticTable, error) {
	mounts, err := procfs.GetMounts()
	if err != nil {
		return nil, err
	}
	devices := make([]string, 0, len(mounts))
	for _, m := range mounts {
		devices = append(devices, m.Source)
	}
	logrus.Debugf("loaded %d live mount entries", len(devices))
	return NewStaticTable(devices...), nil
}
