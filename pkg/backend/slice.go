package backend

import (
	"github.com/samqfs/au-discovery/pkg/au"
)

// Slices walks the raw slice root.
func (e *Enumerator) Slices(ctx *au.Context) ([]*au.Unit, error) {
	var units []*au.Unit
	root := e.Config.Roots.RawSlice
	if err := e.walkDir(ctx, root, au.RawSlice, walkOptions{}, &units); err != nil {
		return nil, &au.Error{Kind: au.ErrUnavailable, Path: root, Backend: au.RawSlice.String(), Err: err}
	}
	return units, nil
}
