package backend

import (
	"path/filepath"
	"strings"

	"github.com/samqfs/au-discovery/pkg/au"
)

// ParseMirrorRedundancy reads "metastat -p" output. Lines whose second field
// is a layout flag ("d10 -m d11 d12", "d20 -r c0t0d0s0 ...") map the
// metadevice to "1" for mirrors and "5" for RAID-5. Diskset output names
// metadevices "set/dN"; the set prefix is dropped.
func ParseMirrorRedundancy(lines []string) map[string]string {
	res := map[string]string{}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "-") {
			continue
		}
		name := filepath.Base(fields[0])
		switch fields[1] {
		case "-m":
			res[name] = au.RedundancyMirror
		case "-r":
			res[name] = au.RedundancyParity
		}
	}
	return res
}

// ApplyMirrorRedundancy sets the redundancy of software mirror units by the
// metadevice name at the end of their path.
func ApplyMirrorRedundancy(units []*au.Unit, lines []string) {
	layouts := ParseMirrorRedundancy(lines)
	for _, u := range units {
		if u.Kind != au.SoftwareMirror {
			continue
		}
		if r, ok := layouts[filepath.Base(u.Path)]; ok {
			u.Redundancy = r
		}
	}
}

// ApplyVolumeRedundancy reads "vxprint -hq" output:
//
//	dg dg1       dg1
//	v  vol01     fsgen
//	pl vol01-01  vol01
//	pl vol01-02  vol01
//
// A disk group line sets the group prefix (none for rootdg), a volume line
// whose usage type is raid5 marks parity, and a second plex under the same
// volume marks a mirror unless parity was already set. blockRoot is the
// block form of the volume manager root the unit paths live under.
func ApplyVolumeRedundancy(units []*au.Unit, blockRoot string, lines []string) {
	byName := map[string]*au.Unit{}
	prefix := strings.TrimSuffix(blockRoot, "/") + "/"
	for _, u := range units {
		if u.Kind == au.ThirdPartyVolume && strings.HasPrefix(u.Path, prefix) {
			byName[strings.TrimPrefix(u.Path, prefix)] = u
		}
	}

	var group string
	var current *au.Unit
	plexes := 0
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		switch fields[0] {
		case "dg":
			group = ""
			if fields[1] != "rootdg" {
				group = fields[1] + "/"
			}
			current = nil
		case "v":
			plexes = 0
			current = byName[group+fields[1]]
			if current != nil && fields[2] == "raid5" {
				current.Redundancy = au.RedundancyParity
			}
		case "pl":
			plexes++
			if plexes == 2 && current != nil && current.Redundancy == "" {
				current.Redundancy = au.RedundancyMirror
			}
		}
	}
}
