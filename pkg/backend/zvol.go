package backend

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
)

// ZfsVolumes walks the ZFS volume namespace, descending into every pool and
// nested dataset directory.
func (e *Enumerator) ZfsVolumes(ctx *au.Context) []*au.Unit {
	root := e.Config.Roots.ZfsVolume
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logrus.Debugf("ZFS volumes not available under %s", root)
		ctx.ZvolAvailable = false
		return nil
	}
	ctx.ZvolAvailable = true

	opts := walkOptions{
		descend: func(string, int) bool { return true },
	}
	var units []*au.Unit
	if err := e.walkDir(ctx, root, au.ZfsVolume, opts, &units); err != nil {
		logrus.Debugf("failed to walk %s: %v", root, err)
	}
	return units
}
