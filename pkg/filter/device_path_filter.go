package filter

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
)

const (
	devicePathFilterName = "device path filter"
)

// devicePathFilter filters units based on given device path patterns, tried
// against both the block and the raw path.
type devicePathFilter struct {
	devicePaths []string
}

func RegisterDevicePathFilter(filters ...string) *Filter {
	f := &devicePathFilter{}
	for _, filter := range filters {
		if filter != "" {
			f.devicePaths = append(f.devicePaths, filter)
		}
	}
	return &Filter{
		Name:       devicePathFilterName,
		UnitFilter: f,
	}
}

// Exclude returns true if given device path matches the pattern.
func (f *devicePathFilter) Exclude(u *au.Unit) bool {
	return matchDevPath(u.Path, f.devicePaths) || matchDevPath(au.RawPath(u.Path), f.devicePaths)
}

func matchDevPath(devPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" || devPath == "" {
			return false
		}
		ok, err := filepath.Match(pattern, devPath)
		if err != nil {
			logrus.Errorf("failed to perform device path matching on unit %s for pattern %s: %s", devPath, pattern, err.Error())
			return false
		}
		if ok {
			return true
		}
	}
	return false
}
