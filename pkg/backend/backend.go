package backend

import (
	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/block"
	"github.com/samqfs/au-discovery/pkg/mount"
	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Prober determines capacity and usage of one device node.
type Prober interface {
	Probe(ctx *au.Context, path string, kind au.Kind) (block.Result, error)
}

// IdentityResolver derives the hardware identity of a raw device node.
type IdentityResolver interface {
	Resolve(path string) (*au.Identity, error)
}

// ObjectProber confirms an object device node is a reachable target.
type ObjectProber interface {
	Reachable(path string) error
}

// Enumerator produces the candidate units of every backend.
type Enumerator struct {
	Config   *option.Config
	Executor utils.Executor
	Prober   Prober
	Identity IdentityResolver
	Mounts   mount.Table
	Objects  ObjectProber
}

// Enumerate lists the units of one backend. Backends that are not present on
// this host yield an empty list and no error.
func (e *Enumerator) Enumerate(ctx *au.Context, kind au.Kind) ([]*au.Unit, error) {
	switch kind {
	case au.RawSlice:
		return e.Slices(ctx)
	case au.SoftwareMirror:
		return e.Mirrors(ctx), nil
	case au.ThirdPartyVolume:
		return e.Volumes(ctx), nil
	case au.ZfsVolume:
		return e.ZfsVolumes(ctx), nil
	case au.ObjectDevice:
		return e.ObjectDevices(ctx), nil
	}
	return nil, au.NewError(au.ErrArgument, "", nil)
}

// newUnit builds a unit from a probed raw node.
func newUnit(rawPath string, kind au.Kind, res block.Result) *au.Unit {
	u := &au.Unit{
		Path:     au.BlockPath(rawPath),
		Kind:     kind,
		Capacity: res.Capacity,
	}
	if res.State == block.StateInUse {
		u.UsageLabel = au.InUseMarker
	}
	return u
}

// AttachIdentity resolves the identity of a slice unit. Failures leave the
// identity, or its device id, unset.
func AttachIdentity(resolver IdentityResolver, u *au.Unit) {
	if resolver == nil || u.Kind != au.RawSlice {
		return
	}
	id, err := resolver.Resolve(au.RawPath(u.Path))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path": u.Path,
		}).Debugf("identity not resolved: %v", err)
	}
	u.Identity = id
}
