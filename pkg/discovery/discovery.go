package discovery

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/backend"
	"github.com/samqfs/au-discovery/pkg/block"
	"github.com/samqfs/au-discovery/pkg/cluster"
	"github.com/samqfs/au-discovery/pkg/inuse"
	"github.com/samqfs/au-discovery/pkg/mount"
	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/overlap"
	"github.com/samqfs/au-discovery/pkg/resolver"
	"github.com/samqfs/au-discovery/pkg/scsi"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Discoverer is the entry point of unit discovery. Every call builds its own
// au.Context, so calls may run concurrently.
type Discoverer struct {
	Config     *option.Config
	Enumerator *backend.Enumerator
	Referencer *inuse.Referencer
	Detector   *overlap.Detector
	// Lister answers did visibility for HA discovery. Nil selects the
	// configured listing command, or ssh when hosts are named and no
	// all-hosts command is configured.
	Lister cluster.Lister
	// SSHConfig is the ssh client config used to reach named hosts.
	SSHConfig string
	// Hostname overrides this host's node name during the diskset walk.
	Hostname string
}

// New wires a Discoverer for this host: local command execution, the live
// mount table and SCSI identity over SG_IO, falling back to the host block
// inventory.
func New(cfg *option.Config) (*Discoverer, error) {
	executor := utils.NewExecutor()
	if cfg.CommandTimeout != "" {
		timeout, err := time.ParseDuration(cfg.CommandTimeout)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid command timeout %q", cfg.CommandTimeout)
		}
		executor.SetTimeout(timeout)
	}

	var mounts mount.Table
	if table, err := mount.LoadProcTable(); err != nil {
		logrus.Warnf("failed to read the mount table: %v", err)
	} else {
		mounts = table
	}

	var inventory scsi.Inventory
	if inv, err := scsi.LoadHostInventory(); err != nil {
		logrus.Debugf("host block inventory not available: %v", err)
	} else {
		inventory = inv
	}

	return NewWithExecutor(cfg, executor, mounts, scsi.NewResolver(scsi.SGOpener{}, inventory, cfg.ExcludedVendors)), nil
}

// NewWithExecutor wires a Discoverer over the given collaborators.
func NewWithExecutor(cfg *option.Config, executor utils.Executor, mounts mount.Table, identity backend.IdentityResolver) *Discoverer {
	return &Discoverer{
		Config: cfg,
		Enumerator: &backend.Enumerator{
			Config:   cfg,
			Executor: executor,
			Prober:   block.NewProber(mounts),
			Identity: identity,
			Mounts:   mounts,
		},
		Referencer: inuse.NewReferencer(cfg, executor),
		Detector:   overlap.NewDetector(),
	}
}

func (d *Discoverer) kinds() []au.Kind {
	kinds := []au.Kind{au.RawSlice, au.SoftwareMirror, au.ThirdPartyVolume, au.ZfsVolume}
	if d.Config.ObjectDevices {
		kinds = append(kinds, au.ObjectDevice)
	}
	return kinds
}

// DiscoverAll enumerates every backend and labels the units in use. A
// backend that is not present contributes nothing.
func (d *Discoverer) DiscoverAll() ([]*au.Unit, error) {
	ctx := au.NewContext()
	var units []*au.Unit
	for _, kind := range d.kinds() {
		found, err := d.Enumerator.Enumerate(ctx, kind)
		if err != nil {
			logrus.Warnf("%s discovery failed: %v", kind, err)
			continue
		}
		logrus.Debugf("%d %s units found", len(found), kind)
		units = append(units, found...)
	}
	units = d.Referencer.MarkInUse(ctx, units)
	logrus.Infof("%d units discovered", len(units))
	return units, nil
}

// DiscoverAvailable is DiscoverAll without the units in use.
func (d *Discoverer) DiscoverAvailable() ([]*au.Unit, error) {
	units, err := d.DiscoverAll()
	if err != nil {
		return nil, err
	}
	return inuse.Available(units), nil
}

// DiscoverByType enumerates one backend and labels its units in use. Unlike
// DiscoverAll, an unreadable raw slice root is an error.
func (d *Discoverer) DiscoverByType(kind au.Kind) ([]*au.Unit, error) {
	ctx := au.NewContext()
	units, err := d.Enumerator.Enumerate(ctx, kind)
	if err != nil {
		return nil, err
	}
	return d.Referencer.MarkInUse(ctx, units), nil
}

// DiscoverAvailableByType is DiscoverByType without the units in use.
func (d *Discoverer) DiscoverAvailableByType(kind au.Kind) ([]*au.Unit, error) {
	units, err := d.DiscoverByType(kind)
	if err != nil {
		return nil, err
	}
	return inuse.Available(units), nil
}

// DiscoverHA returns the units shared by hosts: slices of the did devices
// they all see and the diskset metadevices. No hosts means this host only.
// With available set, units in use are labelled and dropped.
func (d *Discoverer) DiscoverHA(hosts []string, available bool) ([]*au.Unit, error) {
	ctx := au.NewContext()
	c := cluster.NewDiscoverer(d.Config, d.lister(hosts), d.Enumerator)
	if d.Hostname != "" {
		c.Hostname = d.Hostname
	}
	units := c.Discover(ctx, hosts)
	if available {
		units = inuse.Available(d.Referencer.MarkInUse(ctx, units))
	}
	logrus.Infof("%d HA units discovered", len(units))
	return units, nil
}

func (d *Discoverer) lister(hosts []string) cluster.Lister {
	if d.Lister != nil {
		return d.Lister
	}
	if len(hosts) > 0 && d.Config.Commands.DIDListHosts == "" {
		return cluster.NewSSHLister(d.Config, d.SSHConfig)
	}
	return &cluster.CommandLister{Config: d.Config, Executor: d.Enumerator.Executor}
}

// CheckSlicesForOverlaps returns the slices among paths that overlap another
// partition of their disk. Slices that could not be checked are reported in
// the error but do not stop the batch.
func (d *Discoverer) CheckSlicesForOverlaps(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, au.NewError(au.ErrArgument, "", errors.New("no slices given"))
	}
	return d.Detector.CheckSlices(paths)
}

// ResolveDiskPaths rewrites every disk to its path on this host. units is
// the discovery result to match against; nil runs DiscoverAll first.
func (d *Discoverer) ResolveDiskPaths(disks []*resolver.Disk, units []*au.Unit) error {
	if units == nil {
		var err error
		if units, err = d.DiscoverAll(); err != nil {
			return err
		}
	}
	return resolver.ResolvePaths(disks, units)
}
