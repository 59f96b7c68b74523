package backend

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
)

// walkOptions controls descent into subdirectories of a walked root.
type walkOptions struct {
	// descend reports whether the directory at path is walked. Directories
	// for which it returns false are ignored.
	descend func(path string, depth int) bool
}

// walkDir probes every node under dir and appends the usable ones to units.
// Only a failure to read dir itself is returned.
func (e *Enumerator) walkDir(ctx *au.Context, dir string, kind au.Kind, opts walkOptions, units *[]*au.Unit) error {
	return e.walk(ctx, dir, kind, opts, 0, units)
}

func (e *Enumerator) walk(ctx *au.Context, dir string, kind au.Kind, opts walkOptions, depth int, units *[]*au.Unit) error {
	logrus.Debugf("analyzing %s", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if opts.descend != nil && opts.descend(path, depth) {
				if err := e.walk(ctx, path, kind, opts, depth+1, units); err != nil {
					logrus.Debugf("failed to walk %s: %v", path, err)
				}
			}
			continue
		}

		if u := e.ProbeNode(ctx, path, kind); u != nil {
			*units = append(*units, u)
		}
	}
	return nil
}

// ProbeNode probes one raw node and returns its unit, or nil when the node
// is skipped or unusable.
func (e *Enumerator) ProbeNode(ctx *au.Context, path string, kind au.Kind) *au.Unit {
	res, err := e.Prober.Probe(ctx, path, kind)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path":    path,
			"backend": kind,
		}).Debugf("skipping: %v", err)
		return nil
	}
	if !res.State.Usable() {
		return nil
	}
	u := newUnit(path, kind, res)
	AttachIdentity(e.Identity, u)
	return u
}
