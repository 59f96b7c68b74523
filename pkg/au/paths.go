package au

import (
	"strings"
)

const (
	rawSegment   = "/rdsk/"
	blockSegment = "/dsk/"
	globalPrefix = "/dev/global/"
	didPrefix    = "/dev/did/"
)

// BlockPath converts a raw device path into its block device counterpart
// (/dev/rdsk/c0t0d0s0 -> /dev/dsk/c0t0d0s0). Paths without a raw segment are
// returned as is.
func BlockPath(path string) string {
	return strings.Replace(path, rawSegment, blockSegment, 1)
}

// RawPath is the inverse of BlockPath.
func RawPath(path string) string {
	return strings.Replace(path, blockSegment, rawSegment, 1)
}

// GlobalToDID maps the cluster global device namespace onto the did one.
func GlobalToDID(path string) string {
	if strings.HasPrefix(path, globalPrefix) {
		return didPrefix + strings.TrimPrefix(path, globalPrefix)
	}
	return path
}

// ConfigGlobalToDID rewrites the first "/global/" path element to "/did/" as
// the device configuration spells shared devices.
func ConfigGlobalToDID(path string) string {
	return strings.Replace(path, "/global/", "/did/", 1)
}

// SliceSuffix returns the trailing partition character of a device path.
func SliceSuffix(path string) byte {
	if path == "" {
		return 0
	}
	return path[len(path)-1]
}
