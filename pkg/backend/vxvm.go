package backend

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Volumes walks the volume manager root. Disk group subdirectories are
// walked, except the root disk group whose volumes live in the root itself.
// A root that cannot be read marks the volume manager unavailable.
func (e *Enumerator) Volumes(ctx *au.Context) []*au.Unit {
	root := e.Config.Roots.VolumeMgr
	rootDG := filepath.Join(root, e.Config.Roots.RootDiskGrp)
	opts := walkOptions{
		descend: func(path string, depth int) bool {
			return depth == 0 && path != rootDG
		},
	}

	var units []*au.Unit
	if err := e.walkDir(ctx, root, au.ThirdPartyVolume, opts, &units); err != nil {
		logrus.Debugf("volume manager not available: %v", err)
		ctx.VxVMAvailable = false
		return nil
	}
	ctx.VxVMAvailable = true

	if len(units) > 0 {
		lines, err := utils.RunCommandLine(e.Executor, e.Config.Commands.VxPrint)
		if err != nil {
			logrus.Debugf("redundancy not attributed: %v", err)
		} else {
			ApplyVolumeRedundancy(units, au.BlockPath(root), lines)
		}
	}
	return units
}
