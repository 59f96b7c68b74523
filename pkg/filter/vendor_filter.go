package filter

import (
	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/utils"
)

const (
	vendorFilterName = "vendor filter"
)

type vendorFilter struct {
	vendors []string
}

func RegisterVendorFilter(filters ...string) *Filter {
	vf := &vendorFilter{}
	for _, filter := range filters {
		if filter != "" {
			vf.vendors = append(vf.vendors, filter)
		}
	}
	return &Filter{
		Name:       vendorFilterName,
		UnitFilter: vf,
	}
}

// Exclude returns true if vendor or product of the unit's device is matched
func (vf *vendorFilter) Exclude(u *au.Unit) bool {
	if u.Identity == nil {
		return false
	}
	if u.Identity.Vendor != "" && utils.MatchesIgnoredCase(vf.vendors, u.Identity.Vendor) {
		return true
	}
	if u.Identity.Product != "" && utils.MatchesIgnoredCase(vf.vendors, u.Identity.Product) {
		return true
	}
	return false
}
