package cluster

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/backend"
	"github.com/samqfs/au-discovery/pkg/option"
)

// disksetSkipped are the entries of the diskset root that are not disksets.
var disksetSkipped = sets.New("dsk", "rdsk", "admin", "shared")

// Discoverer finds the units shared by a set of cluster hosts: slices of the
// did devices they all see, and the metadevices of every diskset.
type Discoverer struct {
	Config     *option.Config
	Lister     Lister
	Enumerator *backend.Enumerator
	// Hostname is this host's node name; its own entry under the diskset
	// root is not a diskset.
	Hostname string
}

func NewDiscoverer(cfg *option.Config, lister Lister, enumerator *backend.Enumerator) *Discoverer {
	hostname, err := os.Hostname()
	if err != nil {
		logrus.Warnf("failed to get hostname: %v", err)
	}
	return &Discoverer{
		Config:     cfg,
		Lister:     lister,
		Enumerator: enumerator,
		Hostname:   hostname,
	}
}

// Discover returns the did slices visible from every host followed by the
// diskset metadevices, and records the disksets in ctx. A cluster without
// the device listing yields only diskset units.
func (d *Discoverer) Discover(ctx *au.Context, hosts []string) []*au.Unit {
	units := d.DIDSlices(ctx, d.DIDs(hosts))
	return append(units, d.Disksets(ctx)...)
}

// DIDs lists the did devices visible from every host.
func (d *Discoverer) DIDs(hosts []string) []string {
	pairs, err := d.Lister.List(hosts)
	if err != nil {
		logrus.Warnf("did listing incomplete: %v", err)
	}
	dids := VisibleDIDs(pairs, hosts)
	logrus.WithField("hosts", hosts).Infof("%d did devices shared", len(dids))
	return dids
}

// DIDSlices probes partitions 0 through the configured maximum of every did
// device as raw slices.
func (d *Discoverer) DIDSlices(ctx *au.Context, dids []string) []*au.Unit {
	var units []*au.Unit
	for _, did := range dids {
		for i := 0; i <= d.Config.MaxDIDSlice; i++ {
			path := filepath.Join(d.Config.Roots.DIDRaw, fmt.Sprintf("%ss%d", did, i))
			if u := d.Enumerator.ProbeNode(ctx, path, au.RawSlice); u != nil {
				units = append(units, u)
			}
		}
	}
	return units
}

// Disksets walks the diskset root. Every entry other than the special ones
// names a diskset and is recorded in ctx; directories are walked for their
// raw metadevices.
func (d *Discoverer) Disksets(ctx *au.Context) []*au.Unit {
	root := d.Config.Roots.Diskset
	entries, err := os.ReadDir(root)
	if err != nil {
		logrus.Debugf("no disksets under %s: %v", root, err)
		return nil
	}

	var units []*au.Unit
	for _, entry := range entries {
		name := entry.Name()
		if disksetSkipped.Has(name) || name == d.Hostname {
			continue
		}
		info, err := os.Stat(filepath.Join(root, name))
		if err != nil {
			continue
		}
		ctx.Disksets.Insert(name)
		if info.IsDir() {
			units = append(units, d.Enumerator.DisksetVolumes(ctx, name)...)
		}
	}
	logrus.Debugf("%d disksets found", ctx.Disksets.Len())
	return units
}
