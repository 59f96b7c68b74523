package inuse

import (
	"path"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/samqfs/au-discovery/pkg/au"
)

// Labels of the references that do not name a filesystem.
const (
	LabelMetadb        = "mdb"
	LabelMirror        = "SVM"
	LabelMirrorDiskset = "SVMDS"
	LabelVolumeMgr     = "VxVM"
	LabelZfsVolume     = "ZVOL"
)

var disksetSlice = regexp.MustCompile(`d[0-9]+s[0-9]+`)

// vxdiskStatus are the words the STATUS column of "vxdisk list" may hold
// besides online; the status can span several columns.
var vxdiskStatus = sets.New(
	"online", "offline", "invalid", "error", "shared", "nolabel", "failing",
	"reserved", "aliased", "altused", "clone_disk", "udid_mismatch", "thinrclm",
)

// ParseMetadb returns the replica locations of "metadb" output, one device
// path token per line.
func ParseMetadb(lines []string) []au.Association {
	var res []au.Association
	for _, line := range lines {
		for _, f := range strings.Fields(line) {
			if strings.HasPrefix(f, "/dev") {
				res = append(res, au.Association{Path: f, Label: LabelMetadb})
				break
			}
		}
	}
	return res
}

// ParseMirrorSlices returns the slices "metastat -p" lists as components.
// Every token after the metadevice name that looks like a cXtYdZsN slice is
// a component; bare names live under blockRoot.
func ParseMirrorSlices(lines []string, blockRoot string) []au.Association {
	return parseComponents(lines, LabelMirror, blockRoot, func(tok string) bool {
		return strings.Contains(tok, "c")
	})
}

// ParseDisksetSlices returns the did slices "metastat -p -s set" lists as
// components; bare names live under didBlockRoot.
func ParseDisksetSlices(lines []string, didBlockRoot string) []au.Association {
	return parseComponents(lines, LabelMirrorDiskset, didBlockRoot, disksetSlice.MatchString)
}

func parseComponents(lines []string, label, root string, component func(string) bool) []au.Association {
	var res []au.Association
	for _, line := range lines {
		fields := strings.Fields(line)
		for i := 1; i < len(fields); i++ {
			if component(fields[i]) {
				// metastat may print raw component paths
				res = append(res, au.Association{Path: au.BlockPath(slicePath(fields[i], root)), Label: label})
			}
		}
	}
	return res
}

func slicePath(tok, root string) string {
	if strings.HasPrefix(tok, "/") {
		return tok
	}
	return path.Join(root, tok)
}

// ParseVxDisk returns the devices "vxdisk -e list" reports online. The status
// starts at the fifth column and the OS device name follows it.
func ParseVxDisk(lines []string, blockRoot string) []au.Association {
	var res []au.Association
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 6 || !strings.Contains(fields[4], "online") {
			continue
		}
		i := 5
		for i < len(fields) && vxdiskStatus.Has(fields[i]) {
			i++
		}
		if i == len(fields) {
			continue
		}
		res = append(res, au.Association{Path: slicePath(fields[i], blockRoot), Label: LabelVolumeMgr})
	}
	return res
}

// ParseZfsList returns the volumes of "zfs list -H -t volume", named by the
// first column under zvolBlockRoot.
func ParseZfsList(lines []string, zvolBlockRoot string) []au.Association {
	var res []au.Association
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		res = append(res, au.Association{Path: slicePath(fields[0], zvolBlockRoot), Label: LabelZfsVolume})
	}
	return res
}
