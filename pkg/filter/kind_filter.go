package filter

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
)

const (
	kindFilterName = "kind filter"
)

// kindFilter filters units of the given backend kinds.
type kindFilter struct {
	kinds sets.Set[au.Kind]
}

func RegisterKindFilter(filters ...string) (*Filter, error) {
	f := &kindFilter{kinds: sets.New[au.Kind]()}
	for _, filter := range filters {
		if filter == "" {
			continue
		}
		kind, err := au.ParseKind(filter)
		if err != nil {
			return nil, err
		}
		f.kinds.Insert(kind)
	}
	return &Filter{
		Name:       kindFilterName,
		UnitFilter: f,
	}, nil
}

// Exclude returns true if the unit's kind is listed.
func (f *kindFilter) Exclude(u *au.Unit) bool {
	return f.kinds.Has(u.Kind)
}
