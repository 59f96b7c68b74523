package au

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelabel(t *testing.T) {
	var testCases = []struct {
		name     string
		current  string
		label    string
		expected string
	}{
		{name: "unused unit", current: "", label: "ufs", expected: "ufs"},
		{name: "claimed unit", current: "SVM", label: "samfs1", expected: "samfs1"},
		{name: "held open unit keeps marker", current: InUseMarker, label: "ufs", expected: "ufs*"},
		{name: "held and claimed keeps marker", current: "mdb*", label: "VxVM", expected: "VxVM*"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u := &Unit{Path: "/dev/dsk/c0t0d0s0", UsageLabel: tc.current}
			u.Relabel(tc.label)
			assert.Equal(t, tc.expected, u.UsageLabel)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	u := &Unit{
		Path:       "/dev/dsk/c0t0d0s0",
		Capacity:   1 << 20,
		Redundancy: RedundancyMirror,
		Identity:   &Identity{Vendor: "SEAGATE", DeviceID: "5000c500"},
	}
	c := u.Clone()
	c.Identity.DeviceID = "changed"
	c.UsageLabel = "ufs"

	assert.Equal(t, "5000c500", u.Identity.DeviceID)
	assert.Empty(t, u.UsageLabel)
	assert.Equal(t, u.Redundancy, c.Redundancy)
	assert.Equal(t, u.Capacity, c.Capacity)
}

func TestKeyIsStable(t *testing.T) {
	a := &Unit{Path: "/dev/dsk/c0t0d0s0", Kind: RawSlice}
	b := a.Clone()
	b.UsageLabel = "ufs"
	assert.Equal(t, a.Key(), b.Key())
	assert.Len(t, a.Key(), 32)

	b.Kind = SoftwareMirror
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("tape")
	assert.Error(t, err)
}

func TestPathConversions(t *testing.T) {
	assert.Equal(t, "/dev/dsk/c0t0d0s0", BlockPath("/dev/rdsk/c0t0d0s0"))
	assert.Equal(t, "/dev/md/dsk/d10", BlockPath("/dev/md/rdsk/d10"))
	assert.Equal(t, "/dev/osd/osd@1,0", BlockPath("/dev/osd/osd@1,0"))
	assert.Equal(t, "/dev/rdsk/c0t0d0s0", RawPath("/dev/dsk/c0t0d0s0"))
	assert.Equal(t, "/dev/did/rdsk/d4s0", GlobalToDID("/dev/global/rdsk/d4s0"))
	assert.Equal(t, "/dev/did/dsk/d4s0", ConfigGlobalToDID("/dev/global/dsk/d4s0"))
	assert.Equal(t, byte('3'), SliceSuffix("/dev/dsk/c0t0d0s3"))
}

func TestSharesFailedDisk(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.SharesFailedDisk("/dev/rdsk/c1t0d0s1"))

	ctx.LastIOErrSlice = "/dev/rdsk/c1t0d0s0"
	assert.True(t, ctx.SharesFailedDisk("/dev/rdsk/c1t0d0s1"))
	assert.False(t, ctx.SharesFailedDisk("/dev/rdsk/c1t1d0s1"))
}

func TestErrorKind(t *testing.T) {
	err := error(&Error{Kind: ErrParse, Path: "/dev/rdsk/c0t0d0s0", Backend: "scsi"})
	assert.True(t, IsKind(err, ErrParse))
	assert.False(t, IsKind(err, ErrIO))
	assert.Contains(t, err.Error(), "/dev/rdsk/c0t0d0s0")
}
