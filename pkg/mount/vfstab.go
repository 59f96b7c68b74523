package mount

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// VfstabEntry is one line of the static mount table.
type VfstabEntry struct {
	Special     string
	FsckDevice  string
	MountPoint  string
	FSType      string
	FsckPass    string
	MountAtBoot bool
	Options     []string
}

// ReadVfstab parses the static mount table at path.
func ReadVfstab(path string) ([]VfstabEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return parseVfstab(f)
}

func parseVfstab(r io.Reader) ([]VfstabEntry, error) {
	var entries []VfstabEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if entry := parseVfstabEntry(scanner.Text()); entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, scanner.Err()
}

func parseVfstabEntry(line string) *VfstabEntry {
	// entries look like this:
	// /dev/dsk/c0t0d0s7 /dev/rdsk/c0t0d0s7 /export/home ufs 2 yes -
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil
	}
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil
	}

	// mount points may carry octal escapes for whitespace, as mtab does
	r := strings.NewReplacer(
		"\\011", "\t", "\\012", "\n", "\\040", " ", "\\\\", "\\",
	)
	entry := &VfstabEntry{
		Special:    fields[0],
		FsckDevice: fields[1],
		MountPoint: r.Replace(fields[2]),
		FSType:     fields[3],
	}
	if len(fields) > 4 {
		entry.FsckPass = fields[4]
	}
	if len(fields) > 5 {
		entry.MountAtBoot = fields[5] == "yes"
	}
	if len(fields) > 6 && fields[6] != "-" {
		entry.Options = strings.Split(fields[6], ",")
	}
	return entry
}
