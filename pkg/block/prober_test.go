package block_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/block"
	"github.com/samqfs/au-discovery/pkg/block/fake"
	"github.com/samqfs/au-discovery/pkg/mount"
)

func TestIsExcludedSlice(t *testing.T) {
	var testCases = []struct {
		name     string
		given    string
		expected bool
	}{
		{name: "fdisk partition", given: "/dev/rdsk/c0t0d0p0", expected: true},
		{name: "whole disk node", given: "/dev/rdsk/c0t0d1", expected: true},
		{name: "boot slice 8", given: "/dev/rdsk/c0t0d0s8", expected: true},
		{name: "alternates slice 9", given: "/dev/rdsk/c0t0d0s9", expected: true},
		{name: "two digit slice", given: "/dev/rdsk/c0t0d0s10", expected: true},
		{name: "backup slice", given: "/dev/rdsk/c0t0d0s2", expected: true},
		{name: "too short", given: "s0", expected: true},
		{name: "data slice", given: "/dev/rdsk/c0t0d0s0", expected: false},
		{name: "did slice", given: "/dev/did/rdsk/d4s6", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, block.IsExcludedSlice(tc.given))
		})
	}
}

func TestProbeRawSlice(t *testing.T) {
	dir := t.TempDir()
	parts := []block.Partition{
		{Start: 2048, Size: 2048},
		{Start: 4096, Size: 0},
		{Start: 0, Size: 8192},
	}
	for _, name := range []string{"c0t0d0s0", "c0t0d0s1", "c0t0d0s4", "c0t0d0s8"} {
		require.NoError(t, fake.WriteVTOCDevice(filepath.Join(dir, name), 512, parts...))
	}

	prober := block.NewProber(nil)

	res, err := prober.Probe(au.NewContext(), filepath.Join(dir, "c0t0d0s0"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, block.Result{Capacity: 1048576, State: block.StateFree}, res)

	res, err = prober.Probe(au.NewContext(), filepath.Join(dir, "c0t0d0s1"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, block.StateInvalid, res.State, "zero capacity")

	res, err = prober.Probe(au.NewContext(), filepath.Join(dir, "c0t0d0s4"), au.RawSlice)
	assert.Error(t, err, "index beyond label")
	assert.True(t, au.IsKind(err, au.ErrParse))
	assert.Equal(t, block.StateInvalid, res.State)

	res, err = prober.Probe(au.NewContext(), filepath.Join(dir, "c0t0d0s8"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, block.StateSkip, res.State)
}

func TestProbeGPTSlice(t *testing.T) {
	dir := t.TempDir()
	entries := make([]block.GPTEntry, 9)
	entries[0] = block.GPTEntry{TypeGUID: fake.SolarisUsrGUID, FirstLBA: 256, LastLBA: 256 + 4095}
	entries[7] = block.GPTEntry{TypeGUID: fake.SolarisUsrGUID, FirstLBA: 8192, LastLBA: 8192 + 16383}
	for _, name := range []string{"c1t0d0s0", "c1t0d0s1", "c1t0d0s7"} {
		require.NoError(t, fake.WriteGPTDevice(filepath.Join(dir, name), entries...))
	}

	prober := block.NewProber(nil)
	res, err := prober.Probe(au.NewContext(), filepath.Join(dir, "c1t0d0s0"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096*512), res.Capacity)
	assert.Equal(t, block.StateFree, res.State)

	res, err = prober.Probe(au.NewContext(), filepath.Join(dir, "c1t0d0s1"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, block.StateInvalid, res.State, "unused entry has no capacity")

	res, err = prober.Probe(au.NewContext(), filepath.Join(dir, "c1t0d0s7"), au.RawSlice)
	require.NoError(t, err)
	assert.Equal(t, block.StateSkip, res.State, "reserved EFI slice")
}

func TestProbeUnlabelledSlice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c2t0d0s0")
	require.NoError(t, fake.WriteVolume(path, 4096))

	ctx := au.NewContext()
	res, err := block.NewProber(nil).Probe(ctx, path, au.RawSlice)
	assert.True(t, au.IsKind(err, au.ErrParse))
	assert.Equal(t, block.StateInvalid, res.State)
	assert.Empty(t, ctx.LastIOErrSlice, "a missing label is not an i/o error")
}

func TestProbeSkipsSiblingOfFailedSlice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c3t0d0s1")
	require.NoError(t, fake.WriteVTOCDevice(path, 512, block.Partition{Size: 1}, block.Partition{Size: 2048}))

	ctx := au.NewContext()
	ctx.LastIOErrSlice = filepath.Join(dir, "c3t0d0s0")
	res, err := block.NewProber(nil).Probe(ctx, path, au.RawSlice)
	assert.True(t, au.IsKind(err, au.ErrIO))
	assert.Equal(t, block.StateInvalid, res.State)
}

func TestProbeMissingNode(t *testing.T) {
	res, err := block.NewProber(nil).Probe(au.NewContext(), filepath.Join(t.TempDir(), "c9t0d0s0"), au.RawSlice)
	assert.True(t, au.IsKind(err, au.ErrIO))
	assert.Equal(t, block.StateInvalid, res.State)
}

func TestProbeVolumes(t *testing.T) {
	dir := t.TempDir()
	zvol := filepath.Join(dir, "vol1")
	mirror := filepath.Join(dir, "d10")
	empty := filepath.Join(dir, "vol2")
	require.NoError(t, fake.WriteVolume(zvol, 1<<24))
	require.NoError(t, fake.WriteVolume(mirror, 1<<22))
	require.NoError(t, fake.WriteVolume(empty, 0))

	prober := block.NewProber(mount.NewStaticTable(zvol))

	res, err := prober.Probe(au.NewContext(), zvol, au.ZfsVolume)
	require.NoError(t, err)
	assert.Equal(t, block.Result{Capacity: 1 << 24, State: block.StateInUse}, res)

	res, err = prober.Probe(au.NewContext(), empty, au.ZfsVolume)
	require.NoError(t, err)
	assert.Equal(t, block.StateInvalid, res.State)

	res, err = prober.Probe(au.NewContext(), mirror, au.SoftwareMirror)
	require.NoError(t, err)
	assert.Equal(t, block.Result{Capacity: 1 << 22, State: block.StateFree}, res)

	_, err = prober.Probe(au.NewContext(), mirror, au.ObjectDevice)
	assert.True(t, au.IsKind(err, au.ErrArgument))

	require.NoError(t, os.Remove(zvol))
	_, err = prober.Probe(au.NewContext(), zvol, au.ZfsVolume)
	assert.Error(t, err)
}
