package overlap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/block"
	blockfake "github.com/samqfs/au-discovery/pkg/block/fake"
	"github.com/samqfs/au-discovery/pkg/overlap"
)

// writeDisk creates one raw node per slice of a disk, each carrying the
// disk's label, and returns the block form of the slice paths.
func writeDisk(t *testing.T, disk string, parts ...block.Partition) []string {
	raw := filepath.Join(t.TempDir(), "dev", "rdsk")
	require.NoError(t, os.MkdirAll(raw, 0755))
	var res []string
	for i := range parts {
		p := filepath.Join(raw, disk+"s"+string(rune('0'+i)))
		require.NoError(t, blockfake.WriteVTOCDevice(p, 512, parts...))
		res = append(res, au.BlockPath(p))
	}
	return res
}

func TestOverlaps(t *testing.T) {
	slices := writeDisk(t, "c0t0d0",
		block.Partition{Start: 1000, Size: 1000},
		block.Partition{Start: 1500, Size: 1000},
		block.Partition{Start: 0, Size: 100000},
		block.Partition{Start: 5000, Size: 1000},
		block.Partition{Start: 5000, Size: 0},
		block.Partition{Start: 6000, Size: 10},
		block.Partition{Start: 0, Size: 500},
	)

	var testCases = []struct {
		name     string
		given    string
		expected overlap.Result
	}{
		{name: "overlaps the next partition", given: slices[0], expected: overlap.Overlaps},
		{name: "overlaps the previous partition", given: slices[1], expected: overlap.Overlaps},
		{name: "whole disk partition overlaps what it covers", given: slices[2], expected: overlap.Overlaps},
		{name: "only the whole disk partition covers it", given: slices[3], expected: overlap.Clear},
		{name: "empty partition", given: slices[4], expected: overlap.Clear},
		{name: "adjacent partitions do not overlap", given: slices[5], expected: overlap.Clear},
		{name: "raw form is accepted", given: au.RawPath(slices[0]), expected: overlap.Overlaps},
	}

	d := overlap.NewDetector()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := d.Overlaps(tc.given)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestOverlapsUnknown(t *testing.T) {
	slices := writeDisk(t, "c1t0d0", block.Partition{Start: 1000, Size: 1000})
	dir := filepath.Dir(au.RawPath(slices[0]))

	outOfRange := filepath.Join(dir, "c1t0d0s5")
	require.NoError(t, blockfake.WriteVTOCDevice(outOfRange, 512, block.Partition{Start: 1000, Size: 1000}))
	efi := filepath.Join(dir, "c2t0d0s0")
	require.NoError(t, blockfake.WriteGPTDevice(efi, block.GPTEntry{TypeGUID: blockfake.SolarisUsrGUID, FirstLBA: 34, LastLBA: 2081}))

	d := overlap.NewDetector()
	for _, p := range []string{outOfRange, efi, filepath.Join(dir, "c3t0d0s0")} {
		res, err := d.Overlaps(au.BlockPath(p))
		assert.Error(t, err, p)
		assert.Equal(t, overlap.Unknown, res, p)
	}
}

func TestCheckSlices(t *testing.T) {
	slices := writeDisk(t, "c0t0d0",
		block.Partition{Start: 1000, Size: 1000},
		block.Partition{Start: 1500, Size: 1000},
		block.Partition{Start: 0, Size: 100000},
		block.Partition{Start: 5000, Size: 1000},
	)
	missing := filepath.Join(filepath.Dir(slices[0]), "c9t0d0s0")

	res, err := overlap.NewDetector().CheckSlices([]string{slices[3], slices[1], missing, slices[0]})
	assert.Equal(t, []string{slices[1], slices[0]}, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c9t0d0s0")

	res, err = overlap.NewDetector().CheckSlices([]string{slices[3]})
	assert.NoError(t, err)
	assert.Empty(t, res)
}
