package filter

import (
	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
)

type Filter struct {
	Name       string
	UnitFilter UnitFilter
}

// SetUnitFilters builds the filters given on the command line. Each argument
// is a list of patterns; empty lists filter nothing.
func SetUnitFilters(vendors, devicePaths, labels, kinds []string) ([]*Filter, error) {
	logrus.Debug("register unit filters")
	kindFilter, err := RegisterKindFilter(kinds...)
	if err != nil {
		return nil, err
	}
	return []*Filter{
		RegisterVendorFilter(vendors...),
		RegisterDevicePathFilter(devicePaths...),
		RegisterLabelFilter(labels...),
		kindFilter,
	}, nil
}

type UnitFilter interface {
	// Exclude returns true if the unit matches the filter and must be dropped
	Exclude(u *au.Unit) bool
}

func (f *Filter) ApplyUnitFilter(u *au.Unit) bool {
	if f.UnitFilter != nil {
		return f.UnitFilter.Exclude(u)
	}
	return false
}

// Apply returns the units no filter excludes.
func Apply(filters []*Filter, units []*au.Unit) []*au.Unit {
	var res []*au.Unit
	for _, u := range units {
		excluded := false
		for _, f := range filters {
			if f.ApplyUnitFilter(u) {
				logrus.WithFields(logrus.Fields{
					"path":   u.Path,
					"filter": f.Name,
				}).Debug("unit excluded")
				excluded = true
				break
			}
		}
		if !excluded {
			res = append(res, u)
		}
	}
	return res
}
