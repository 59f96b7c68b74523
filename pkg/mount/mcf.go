package mount

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// NoFamilySet labels a configured device whose family set column is absent.
// A literal "-" in the column is kept as the label.
const NoFamilySet = "n/a"

// MCFEntry is one disk device line of the master device configuration.
type MCFEntry struct {
	Device    string
	Ordinal   string
	EquipType string
	FamilySet string
}

// ReadMCF returns the disk device entries of the master configuration file
// at path. Only lines naming a disk node under devRoot are returned.
func ReadMCF(path, devRoot string) ([]MCFEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return parseMCF(f, devRoot)
}

func parseMCF(r io.Reader, devRoot string) ([]MCFEntry, error) {
	var entries []MCFEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, devRoot) || !strings.Contains(line, "dsk") {
			continue
		}
		fields := strings.Fields(line)
		entry := MCFEntry{Device: fields[0], FamilySet: NoFamilySet}
		if len(fields) > 1 {
			entry.Ordinal = fields[1]
		}
		if len(fields) > 2 {
			entry.EquipType = fields[2]
		}
		if len(fields) > 3 {
			entry.FamilySet = fields[3]
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
