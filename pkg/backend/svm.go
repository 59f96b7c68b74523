package backend

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// MirrorsAvailable runs the metadata replica check; its exit status alone
// decides whether the software mirror is configured on this host.
func (e *Enumerator) MirrorsAvailable() bool {
	cmd, args, err := utils.SplitCommandLine(e.Config.Commands.MetadbCheck)
	if err != nil {
		logrus.Warnf("invalid metadb check command: %v", err)
		return false
	}
	if _, err := e.Executor.Execute(cmd, args); err != nil {
		logrus.Debugf("metadb check failed, skipping software mirror: %v", err)
		return false
	}
	return true
}

// Mirrors walks the software mirror root and the root of every diskset
// already known to ctx, then attributes redundancy.
func (e *Enumerator) Mirrors(ctx *au.Context) []*au.Unit {
	if !e.MirrorsAvailable() {
		return nil
	}

	var local []*au.Unit
	root := e.Config.Roots.Mirror
	if err := e.walkDir(ctx, root, au.SoftwareMirror, walkOptions{}, &local); err != nil {
		logrus.Debugf("failed to walk %s: %v", root, err)
		return nil
	}
	e.attributeMirrorRedundancy(local, "")
	units := local

	for _, set := range sets.List(ctx.Disksets) {
		units = append(units, e.DisksetVolumes(ctx, set)...)
	}
	return units
}

// DisksetVolumes walks the raw metadevices of one diskset.
func (e *Enumerator) DisksetVolumes(ctx *au.Context, set string) []*au.Unit {
	var units []*au.Unit
	dir := filepath.Join(e.Config.Roots.Diskset, set, "rdsk")
	if err := e.walkDir(ctx, dir, au.SoftwareMirror, walkOptions{}, &units); err != nil {
		logrus.Debugf("failed to walk diskset %s: %v", set, err)
		return nil
	}
	e.attributeMirrorRedundancy(units, set)
	return units
}

func (e *Enumerator) attributeMirrorRedundancy(units []*au.Unit, set string) {
	if len(units) == 0 {
		return
	}
	var args []string
	line := e.Config.Commands.Metastat
	if set != "" {
		line = e.Config.Commands.MetastatDiskset
		args = []string{set}
	}
	lines, err := utils.RunCommandLine(e.Executor, line, args...)
	if err != nil {
		logrus.Debugf("redundancy not attributed: %v", err)
		return
	}
	ApplyMirrorRedundancy(units, lines)
}
