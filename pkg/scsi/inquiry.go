package scsi

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/samqfs/au-discovery/pkg/au"
)

const (
	OpInquiry = 0x12

	PageSerialNumber = 0x80
	PageDeviceID     = 0x83

	StandardInquiryLen = 40
	MaxPageLen         = 0xff

	minStandardLen   = 36
	minDeviceIDLen   = 8
	minSerialLen     = 4
	maxDeviceIDPage  = MaxPageLen - 3
	unknownDevice    = 0x1f
	descHeaderLen    = 4
	idTypeNAA        = 3
	peripheralMask   = 0x1f
	identifierTypeNb = 0x0f
)

// InquiryCDB builds a six byte INQUIRY command. page is ignored unless evpd
// is set.
func InquiryCDB(evpd bool, page byte, alloc byte) []byte {
	cdb := []byte{OpInquiry, 0, 0, 0, alloc, 0}
	if evpd {
		cdb[1] = 1
		cdb[2] = page
	}
	return cdb
}

// ParseStandardInquiry extracts the vendor, product and revision fields.
func ParseStandardInquiry(data []byte) (*au.Identity, error) {
	if len(data) < minStandardLen {
		return nil, errors.Errorf("standard inquiry returned %d bytes, need %d", len(data), minStandardLen)
	}
	return &au.Identity{
		Vendor:   trimField(data[8:16]),
		Product:  trimField(data[16:32]),
		Revision: trimField(data[32:36]),
	}, nil
}

func trimField(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// ParseDeviceIDPage walks the identification descriptors of a page 0x83
// response and returns the hex encoding of every NAA identifier found.
func ParseDeviceIDPage(data []byte) (string, error) {
	if len(data) < descHeaderLen {
		return "", errors.Errorf("page 0x83 returned %d bytes", len(data))
	}
	if data[0]&peripheralMask == unknownDevice {
		return "", errors.New("page 0x83: unknown device")
	}
	if data[2] == 0 && data[3] == 0 {
		return "", errors.New("page 0x83: length field is 0")
	}
	pageLen := int(data[3])
	if pageLen > maxDeviceIDPage {
		return "", errors.Errorf("page 0x83: length %d exceeds %d", pageLen, maxDeviceIDPage)
	}
	if len(data) < minDeviceIDLen {
		return "", errors.Errorf("page 0x83: short response of %d bytes", len(data))
	}
	if descHeaderLen+pageLen > len(data) {
		return "", errors.Errorf("page 0x83: declared length %d exceeds the %d bytes returned", pageLen, len(data)-descHeaderLen)
	}

	var id strings.Builder
	page := data[descHeaderLen : descHeaderLen+pageLen]
	for used := 0; used < pageLen; {
		if pageLen-used < descHeaderLen {
			return "", errors.Errorf("page 0x83: truncated descriptor header at offset %d", used)
		}
		desc := page[used:]
		dlen := int(desc[3])
		if dlen == 0 {
			return "", errors.Errorf("page 0x83: empty descriptor at offset %d", used)
		}
		if used+descHeaderLen+dlen > pageLen {
			return "", errors.Errorf("page 0x83: descriptor at offset %d overruns page length %d", used, pageLen)
		}
		if desc[1]&identifierTypeNb == idTypeNAA {
			id.WriteString(hex.EncodeToString(desc[descHeaderLen : descHeaderLen+dlen]))
		}
		used += descHeaderLen + dlen
	}
	return id.String(), nil
}

// ParseSerialPage returns the trimmed unit serial number of a page 0x80
// response.
func ParseSerialPage(data []byte) (string, error) {
	if len(data) < minSerialLen {
		return "", errors.Errorf("page 0x80: short response of %d bytes", len(data))
	}
	n := int(data[3])
	if n > len(data)-minSerialLen {
		return "", errors.Errorf("page 0x80: serial length %d exceeds the %d bytes returned", n, len(data)-minSerialLen)
	}
	serial := trimField(data[minSerialLen : minSerialLen+n])
	if serial == "" {
		return "", errors.New("page 0x80: empty serial number")
	}
	return serial, nil
}
