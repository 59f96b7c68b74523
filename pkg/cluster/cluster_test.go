package cluster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/backend"
	"github.com/samqfs/au-discovery/pkg/block"
	blockfake "github.com/samqfs/au-discovery/pkg/block/fake"
	"github.com/samqfs/au-discovery/pkg/option"
	"github.com/samqfs/au-discovery/pkg/utils/fake"
)

var visibility = []Visibility{
	{"d1", "alpha"}, {"d1", "beta"}, {"d1", "gamma"},
	{"d2", "alpha"}, {"d2", "beta"},
	{"d3", "alpha"}, {"d3", "beta"}, {"d3", "gamma"}, {"d3", "delta"},
	{"d4", "gamma"},
	{"d5", "beta"}, {"d5", "gamma"}, {"d5", "alpha"},
}

func TestVisibleDIDs(t *testing.T) {
	var testCases = []struct {
		name     string
		given    []string
		expected []string
	}{
		{name: "three hosts", given: []string{"alpha", "beta", "gamma"}, expected: []string{"d1", "d3", "d5"}},
		{name: "two hosts", given: []string{"alpha", "beta"}, expected: []string{"d1", "d2", "d3", "d5"}},
		{name: "one host", given: []string{"gamma"}, expected: []string{"d1", "d3", "d4", "d5"}},
		{name: "unknown host", given: []string{"alpha", "epsilon"}, expected: nil},
		{name: "no host filter", given: nil, expected: []string{"d1", "d2", "d3", "d4", "d5"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, VisibleDIDs(visibility, tc.given))
		})
	}
}

func TestParseDIDList(t *testing.T) {
	assert.Equal(t, []Visibility{
		{"d1", "alpha"},
		{"d2", "beta"},
	}, ParseDIDList([]string{
		"d1    alpha",
		"",
		"garbage",
		"/dev/did/rdsk/d2 beta",
	}))
}

func TestCommandLister(t *testing.T) {
	cfg := option.DefaultConfig()
	executor := fake.NewExecutor(nil).
		Set(cfg.Commands.DIDList, "d1 alpha\nd2 alpha\n").
		Set(cfg.Commands.DIDListHosts, "d1 alpha\nd1 beta\nd2 alpha\n")
	l := &CommandLister{Config: cfg, Executor: executor}

	local, err := l.List(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, VisibleDIDs(local, nil))

	shared, err := l.List([]string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, VisibleDIDs(shared, []string{"alpha", "beta"}))
}

type remote struct {
	*fake.Executor
	closed bool
}

func (r *remote) Close() error {
	r.closed = true
	return nil
}

func TestSSHLister(t *testing.T) {
	cfg := option.DefaultConfig()
	remotes := map[string]*remote{
		"alpha": {Executor: fake.NewExecutor(nil).Set(cfg.Commands.DIDList, "d3 node1\nd1 node1\n")},
		"beta":  {Executor: fake.NewExecutor(nil).Set(cfg.Commands.DIDList, "d1 node2\nd2 node2\nd3 node2\n")},
	}
	l := &SSHLister{
		Config: cfg,
		Connect: func(host string) (RemoteExecutor, error) {
			if r, ok := remotes[host]; ok {
				return r, nil
			}
			return nil, errors.New("connection refused")
		},
	}

	pairs, err := l.List([]string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, []Visibility{
		{"d1", "alpha"}, {"d1", "beta"},
		{"d2", "beta"},
		{"d3", "alpha"}, {"d3", "beta"},
	}, pairs)
	assert.Equal(t, []string{"d1", "d3"}, VisibleDIDs(pairs, []string{"alpha", "beta"}))
	assert.True(t, remotes["alpha"].closed)

	pairs, err = l.List([]string{"alpha", "gamma"})
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, VisibleDIDs(pairs, []string{"alpha", "gamma"}))
}

type staticLister []Visibility

func (l staticLister) List([]string) ([]Visibility, error) {
	return l, nil
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	cfg := option.DefaultConfig()
	cfg.Roots.DIDRaw = filepath.Join(base, "did", "rdsk")
	cfg.Roots.Diskset = filepath.Join(base, "md")
	cfg.Commands.MetastatDiskset = "metastat -p -s"

	require.NoError(t, os.MkdirAll(cfg.Roots.DIDRaw, 0755))
	parts := []block.Partition{{Start: 0, Size: 2048}, {Start: 2048, Size: 4096}, {Start: 0, Size: 8192}}
	for _, name := range []string{"d1s0", "d1s1", "d1s2", "d2s0", "d7s0"} {
		require.NoError(t, blockfake.WriteVTOCDevice(filepath.Join(cfg.Roots.DIDRaw, name), 512, parts...))
	}

	for _, dir := range []string{"rdsk", "dsk", "admin", "shared", "node1", "set1/rdsk", "set2/rdsk"} {
		require.NoError(t, os.MkdirAll(filepath.Join(cfg.Roots.Diskset, dir), 0755))
	}
	require.NoError(t, blockfake.WriteVolume(filepath.Join(cfg.Roots.Diskset, "set1", "rdsk", "d100"), 1<<20))
	require.NoError(t, blockfake.WriteVolume(filepath.Join(cfg.Roots.Diskset, "rdsk", "d10"), 1<<20))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Roots.Diskset, "set3"), nil, 0644))

	executor := fake.NewExecutor(nil).Set("metastat -p -s set1", "set1/d100 -m set1/d101 1\n")
	enumerator := &backend.Enumerator{Config: cfg, Executor: executor, Prober: block.NewProber(nil)}
	d := &Discoverer{
		Config:     cfg,
		Lister:     staticLister{{"d1", "alpha"}, {"d1", "beta"}, {"d2", "alpha"}},
		Enumerator: enumerator,
		Hostname:   "node1",
	}

	ctx := au.NewContext()
	units := d.Discover(ctx, []string{"alpha", "beta"})

	didBlock := au.BlockPath(cfg.Roots.DIDRaw)
	setBlock := au.BlockPath(filepath.Join(cfg.Roots.Diskset, "set1", "rdsk"))
	var paths []string
	for _, u := range units {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(didBlock, "d1s0"),
		filepath.Join(didBlock, "d1s1"),
		filepath.Join(setBlock, "d100"),
	}, paths)
	assert.Equal(t, uint64(2048*512), units[0].Capacity)
	assert.Equal(t, au.RawSlice, units[1].Kind)
	assert.Equal(t, au.SoftwareMirror, units[2].Kind)
	assert.Equal(t, au.RedundancyMirror, units[2].Redundancy)
	assert.ElementsMatch(t, []string{"set1", "set2", "set3"}, ctx.Disksets.UnsortedList())
}
