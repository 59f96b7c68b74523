package udev

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionHandler(t *testing.T) {
	var testCases = []struct {
		name     string
		given    netlink.UEvent
		expected bool
	}{
		{
			name: "disk added",
			given: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{UdevSubsystemKey: "block", UdevDevtype: "disk", UdevDevname: "/dev/sdb"},
			},
			expected: true,
		},
		{
			name: "partition removed",
			given: netlink.UEvent{
				Action: netlink.REMOVE,
				Env:    map[string]string{UdevSubsystemKey: "block", UdevDevtype: "partition", UdevDevname: "/dev/sdb1"},
			},
			expected: true,
		},
		{
			name: "not a block device",
			given: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{UdevSubsystemKey: "net", UdevDevtype: "disk"},
			},
			expected: false,
		},
		{
			name: "cdrom has no disk type",
			given: netlink.UEvent{
				Action: netlink.ADD,
				Env:    map[string]string{UdevSubsystemKey: "block", UdevDevname: "/dev/sr0"},
			},
			expected: false,
		},
		{
			name: "move is ignored",
			given: netlink.UEvent{
				Action: netlink.MOVE,
				Env:    map[string]string{UdevSubsystemKey: "block", UdevDevtype: "disk"},
			},
			expected: false,
		},
	}

	w := NewWatcher(func(context.Context) {}, "")
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, w.ActionHandler(tc.given))
		})
	}
}

func TestScheduleCoalesces(t *testing.T) {
	var runs int32
	w := NewWatcher(func(context.Context) {
		atomic.AddInt32(&runs, 1)
	}, "")
	w.Settle = 50 * time.Millisecond

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		w.schedule(ctx)
	}
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestGetOptionalMatcher(t *testing.T) {
	m, err := getOptionalMatcher("")
	require.NoError(t, err)
	assert.Nil(t, m)

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = getOptionalMatcher(empty)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = getOptionalMatcher(bad)
	assert.Error(t, err)

	good := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"rules":[{"env":{"SUBSYSTEM":"block"}}]}`), 0o644))
	m, err = getOptionalMatcher(good)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "sdb", Device{UdevDevname: "/dev/sdb"}.GetShortName())
	assert.Equal(t, "", Device{}.GetShortName())

	device := InitUdevDevice(map[string]string{
		UdevIDPath: "pci-0000:00:10.0-scsi-0:0:1:0",
		UdevWWN:    "0x5000c500a1b2c3d4",
	})
	assert.Equal(t, "pci-0000:00:10.0-scsi-0:0:1:0", device.GetIDPath())
	assert.Equal(t, "0x5000c500a1b2c3d4", device.GetWWN())
}
