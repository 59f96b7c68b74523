package au

import (
	"fmt"
	"strings"
)

// Kind is the backend that produced a unit.
type Kind int

const (
	RawSlice Kind = iota
	SoftwareMirror
	ThirdPartyVolume
	ZfsVolume
	ObjectDevice
)

var kindNames = map[Kind]string{
	RawSlice:         "slice",
	SoftwareMirror:   "svm",
	ThirdPartyVolume: "vxvm",
	ZfsVolume:        "zvol",
	ObjectDevice:     "osd",
}

// Kinds lists every kind in the order discovery runs them.
var Kinds = []Kind{RawSlice, SoftwareMirror, ThirdPartyVolume, ZfsVolume, ObjectDevice}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the short backend names used on the command line.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown unit kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
