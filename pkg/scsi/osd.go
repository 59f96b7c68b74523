package scsi

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// ObjectNodePrefix precedes the GUID in an object device node name.
	ObjectNodePrefix = "osd@"
	// MaxObjectGUIDLen bounds the GUID of an object device.
	MaxObjectGUIDLen = 64
)

// ObjectGUID extracts the target GUID from an object device path of the
// form <root>/osd@<guid>,<lun>.
func ObjectGUID(root, path string) (string, error) {
	prefix := strings.TrimSuffix(root, "/") + "/" + ObjectNodePrefix
	if !strings.HasPrefix(path, prefix) {
		return "", errors.Errorf("%s is not an object device under %s", path, root)
	}
	guid := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(guid, ','); i >= 0 {
		guid = guid[:i]
	}
	if guid == "" {
		return "", errors.Errorf("%s carries no guid", path)
	}
	if len(guid) > MaxObjectGUIDLen {
		return "", errors.Errorf("guid of %s exceeds %d characters", path, MaxObjectGUIDLen)
	}
	return guid, nil
}
