package inuse

import (
	"sort"

	"github.com/samqfs/au-discovery/pkg/au"
)

// Merge labels units with the associations claiming their path. Both lists
// are sorted by path and walked in lock-step. The first association matching
// a unit relabels it; every further one materializes a clone inserted
// directly after that unit, ahead of the clones of earlier claims, so a path
// claimed n times appears n times with the latest claim second. The
// returned slice may therefore be longer than units. units is reordered in
// place; associations is left untouched.
func Merge(units []*au.Unit, associations []au.Association) []*au.Unit {
	if len(units) == 0 {
		return units
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Path < units[j].Path })

	assocs := make([]au.Association, len(associations))
	copy(assocs, associations)
	sort.SliceStable(assocs, func(i, j int) bool { return assocs[i].Path < assocs[j].Path })

	res := make([]*au.Unit, 0, len(units))
	ui, ai := 0, 0
	var current *au.Unit
	matches, pos := 0, 0
	for ui < len(units) && ai < len(assocs) {
		u, a := units[ui], assocs[ai]
		switch {
		case u.Path == a.Path:
			if current != u {
				current = u
				pos = len(res)
				res = append(res, u)
			}
			target := u
			if matches > 0 {
				target = u.Clone()
				res = append(res, nil)
				copy(res[pos+2:], res[pos+1:])
				res[pos+1] = target
			}
			matches++
			target.Relabel(a.Label)
			ai++
		case u.Path < a.Path:
			if current != u {
				res = append(res, u)
			}
			ui++
			matches = 0
		default:
			ai++
		}
	}
	for ; ui < len(units); ui++ {
		if current != units[ui] {
			res = append(res, units[ui])
		}
	}
	return res
}

// Available returns the units no consumer claims. Applying it to its own
// result returns the same units.
func Available(units []*au.Unit) []*au.Unit {
	var res []*au.Unit
	for _, u := range units {
		if u.IsAvailable() {
			res = append(res, u)
		}
	}
	return res
}
