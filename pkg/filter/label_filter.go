package filter

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
)

const (
	labelFilterName = "label filter"
)

// labelFilter filters units based on given usage label patterns. The in-use
// marker is not part of the matched label.
type labelFilter struct {
	labels []string
}

func RegisterLabelFilter(filters ...string) *Filter {
	f := &labelFilter{}
	for _, filter := range filters {
		if filter != "" {
			f.labels = append(f.labels, filter)
		}
	}
	return &Filter{
		Name:       labelFilterName,
		UnitFilter: f,
	}
}

// Exclude returns true if usage label matches the pattern
func (f *labelFilter) Exclude(u *au.Unit) bool {
	return matchLabel(strings.TrimSuffix(u.UsageLabel, au.InUseMarker), u.Path, f.labels)
}

func matchLabel(label, devPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" || label == "" {
			return false
		}
		ok, err := filepath.Match(pattern, label)
		if err != nil {
			logrus.Errorf("failed to perform usage label matching on unit %s for pattern %s: %s", devPath, pattern, err.Error())
			return false
		}
		if ok {
			return true
		}
	}
	return false
}
