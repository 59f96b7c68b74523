package scsi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samqfs/au-discovery/pkg/scsi"
	"github.com/samqfs/au-discovery/pkg/scsi/fake"
)

var naa = []byte{0x60, 0x05, 0x08, 0xb4, 0x00, 0x10, 0x6a, 0x3e}

func TestInquiryCDB(t *testing.T) {
	assert.Equal(t, []byte{0x12, 0, 0, 0, 40, 0}, scsi.InquiryCDB(false, 0x83, 40))
	assert.Equal(t, []byte{0x12, 1, 0x83, 0, 0xff, 0}, scsi.InquiryCDB(true, 0x83, 0xff))
}

func TestParseStandardInquiry(t *testing.T) {
	id, err := scsi.ParseStandardInquiry(fake.StandardInquiry("SEAGATE", "ST3300657SS", "0006"))
	require.NoError(t, err)
	assert.Equal(t, "SEAGATE", id.Vendor)
	assert.Equal(t, "ST3300657SS", id.Product)
	assert.Equal(t, "0006", id.Revision)

	_, err = scsi.ParseStandardInquiry(make([]byte, 20))
	assert.Error(t, err)
}

func TestParseDeviceIDPage(t *testing.T) {
	valid := fake.DeviceIDPage(
		fake.Descriptor{Type: 0x02, Data: []byte{0xaa, 0xbb}},
		fake.Descriptor{Type: 0x03, Data: naa},
	)

	overrun := fake.DeviceIDPage(fake.Descriptor{Type: 0x03, Data: naa})
	overrun[7] = 0x20

	declaredTooLong := fake.DeviceIDPage(fake.Descriptor{Type: 0x03, Data: naa})
	declaredTooLong[3] = 0x40

	unknown := fake.DeviceIDPage(fake.Descriptor{Type: 0x03, Data: naa})
	unknown[0] = 0x1f

	emptyDesc := []byte{0, 0x83, 0, 8, 0x01, 0x03, 0, 0, 0, 0, 0, 0}

	var testCases = []struct {
		name     string
		given    []byte
		expected string
		hasError bool
	}{
		{name: "naa descriptor", given: valid, expected: "600508b400106a3e"},
		{name: "two naa descriptors", given: fake.DeviceIDPage(
			fake.Descriptor{Type: 0x03, Data: naa[:4]},
			fake.Descriptor{Type: 0x13, Data: naa[4:]},
		), expected: "600508b400106a3e"},
		{name: "no naa descriptor", given: fake.DeviceIDPage(fake.Descriptor{Type: 0x01, Data: []byte("VENDOR")}), expected: ""},
		{name: "descriptor overruns page", given: overrun, hasError: true},
		{name: "page longer than response", given: declaredTooLong, hasError: true},
		{name: "unknown device", given: unknown, hasError: true},
		{name: "zero length", given: []byte{0, 0x83, 0, 0, 0, 0, 0, 0}, hasError: true},
		{name: "length above 252", given: append([]byte{0, 0x83, 0, 0xfd}, make([]byte, 0xfd)...), hasError: true},
		{name: "short response", given: []byte{0, 0x83, 0, 2, 0, 0}, hasError: true},
		{name: "empty descriptor", given: emptyDesc, hasError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := scsi.ParseDeviceIDPage(tc.given)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
		})
	}
}

func TestParseSerialPage(t *testing.T) {
	serial, err := scsi.ParseSerialPage(fake.SerialPage("  3LM1XQ2V  "))
	require.NoError(t, err)
	assert.Equal(t, "3LM1XQ2V", serial)

	_, err = scsi.ParseSerialPage(fake.SerialPage("    "))
	assert.Error(t, err)

	bad := fake.SerialPage("ABC")
	bad[3] = 10
	_, err = scsi.ParseSerialPage(bad)
	assert.Error(t, err)

	_, err = scsi.ParseSerialPage([]byte{0, 0x80})
	assert.Error(t, err)
}

func TestObjectGUID(t *testing.T) {
	var testCases = []struct {
		name     string
		given    string
		expected string
		hasError bool
	}{
		{name: "guid and lun", given: "/dev/osd/osd@600144f0c0a80101,0", expected: "600144f0c0a80101"},
		{name: "guid only", given: "/dev/osd/osd@600144f0c0a80102", expected: "600144f0c0a80102"},
		{name: "empty guid", given: "/dev/osd/osd@,0", hasError: true},
		{name: "wrong root", given: "/dev/dsk/c0t0d0s0", hasError: true},
		{name: "guid too long", given: "/dev/osd/osd@" + string(make([]byte, 65)) + ",0", hasError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			guid, err := scsi.ObjectGUID("/dev/osd", tc.given)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, guid)
		})
	}
}
