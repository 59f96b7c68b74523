package inuse

import (
	"strings"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/mount"
	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Referencer collects what claims devices on this host: the static mount
// table, the master device configuration and the bookkeeping of each volume
// manager. A source that cannot be read contributes nothing.
type Referencer struct {
	Config   *option.Config
	Executor utils.Executor
}

func NewReferencer(cfg *option.Config, executor utils.Executor) *Referencer {
	return &Referencer{Config: cfg, Executor: executor}
}

// MarkInUse labels units with every reference collected for ctx and returns
// the merged list.
func (r *Referencer) MarkInUse(ctx *au.Context, units []*au.Unit) []*au.Unit {
	return Merge(units, r.Collect(ctx))
}

// Collect gathers the references of every source.
func (r *Referencer) Collect(ctx *au.Context) []au.Association {
	var res []au.Association
	res = append(res, r.Vfstab()...)
	res = append(res, r.MCF()...)
	res = append(res, r.Metadb()...)
	res = append(res, r.Mirrors(ctx)...)
	res = append(res, r.Volumes(ctx)...)
	res = append(res, r.ZfsVolumes(ctx)...)
	return res
}

// Vfstab labels every special of the static mount table that lives in the
// device namespace with its filesystem type.
func (r *Referencer) Vfstab() []au.Association {
	entries, err := mount.ReadVfstab(r.Config.Files.Vfstab)
	if err != nil {
		logrus.Debugf("vfstab references skipped: %v", err)
		return nil
	}
	prefix := strings.TrimSuffix(r.Config.Roots.Devices, "/") + "/"
	var res []au.Association
	for _, e := range entries {
		if strings.HasPrefix(e.Special, prefix) {
			res = append(res, au.Association{Path: e.Special, Label: e.FSType})
		}
	}
	return res
}

// MCF labels every configured disk device with its family set. Shared
// devices configured under the global namespace are matched by their did
// name.
func (r *Referencer) MCF() []au.Association {
	entries, err := mount.ReadMCF(r.Config.Files.MCF, r.Config.Roots.Devices)
	if err != nil {
		logrus.Debugf("mcf references skipped: %v", err)
		return nil
	}
	res := make([]au.Association, 0, len(entries))
	for _, e := range entries {
		res = append(res, au.Association{Path: au.ConfigGlobalToDID(e.Device), Label: e.FamilySet})
	}
	return res
}

// Metadb labels the slices holding software mirror state replicas.
func (r *Referencer) Metadb() []au.Association {
	lines, err := utils.RunCommandLine(r.Executor, r.Config.Commands.Metadb)
	if err != nil {
		logrus.Debugf("metadb references skipped: %v", err)
		return nil
	}
	return ParseMetadb(lines)
}

// Mirrors labels the components of local metadevices and of the metadevices
// of every diskset known to ctx.
func (r *Referencer) Mirrors(ctx *au.Context) []au.Association {
	var res []au.Association
	lines, err := utils.RunCommandLine(r.Executor, r.Config.Commands.Metastat)
	if err != nil {
		logrus.Debugf("software mirror references skipped: %v", err)
	} else {
		res = append(res, ParseMirrorSlices(lines, r.Config.Roots.BlockSlice)...)
	}

	for _, set := range sets.List(ctx.Disksets) {
		lines, err := utils.RunCommandLine(r.Executor, r.Config.Commands.MetastatDiskset, set)
		if err != nil {
			logrus.WithField("diskset", set).Debugf("diskset references skipped: %v", err)
			continue
		}
		res = append(res, ParseDisksetSlices(lines, r.Config.Roots.DIDBlock)...)
	}
	return res
}

// Volumes labels the disks the volume manager has online. It only runs once
// the volume manager was found on this host.
func (r *Referencer) Volumes(ctx *au.Context) []au.Association {
	if !ctx.VxVMAvailable {
		return nil
	}
	lines, err := utils.RunCommandLine(r.Executor, r.Config.Commands.VxDisk)
	if err != nil {
		logrus.Debugf("volume manager references skipped: %v", err)
		return nil
	}
	return ParseVxDisk(lines, r.Config.Roots.BlockSlice)
}

// ZfsVolumes labels every ZFS volume. It only runs once the ZFS volume
// namespace was found on this host.
func (r *Referencer) ZfsVolumes(ctx *au.Context) []au.Association {
	if !ctx.ZvolAvailable {
		return nil
	}
	lines, err := utils.RunCommandLine(r.Executor, r.Config.Commands.ZfsList)
	if err != nil {
		logrus.Debugf("ZFS volume references skipped: %v", err)
		return nil
	}
	return ParseZfsList(lines, au.BlockPath(r.Config.Roots.ZfsVolume))
}
