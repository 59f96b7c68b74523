package au

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// InUseMarker is appended to a usage label when the unit is currently held
// open (mounted, or exclusively opened by another consumer).
const InUseMarker = "*"

const (
	RedundancyMirror = "1"
	RedundancyParity = "5"
)

// Identity is the SCSI level identity of the physical device behind a unit.
type Identity struct {
	Vendor   string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Product  string `json:"product,omitempty" yaml:"product,omitempty"`
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	DeviceID string `json:"deviceID,omitempty" yaml:"deviceID,omitempty"`
}

// Unit is an allocatable unit: a slice, volume or object device that the
// filesystem layer may consume.
type Unit struct {
	Path       string    `json:"path" yaml:"path"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Capacity   uint64    `json:"capacity" yaml:"capacity"`
	UsageLabel string    `json:"usageLabel,omitempty" yaml:"usageLabel,omitempty"`
	Redundancy string    `json:"redundancy,omitempty" yaml:"redundancy,omitempty"`
	Identity   *Identity `json:"identity,omitempty" yaml:"identity,omitempty"`
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	c := *u
	if u.Identity != nil {
		id := *u.Identity
		c.Identity = &id
	}
	return &c
}

// IsAvailable reports whether no consumer claims the unit.
func (u *Unit) IsAvailable() bool {
	return u.UsageLabel == ""
}

// HeldOpen reports whether the unit carries the in-use marker.
func (u *Unit) HeldOpen() bool {
	return strings.HasSuffix(u.UsageLabel, InUseMarker)
}

// Relabel replaces the usage label, keeping the in-use marker when the
// current label carries one.
func (u *Unit) Relabel(label string) {
	held := u.HeldOpen()
	u.UsageLabel = label
	if held {
		u.UsageLabel += InUseMarker
	}
}

// DeviceID returns the identity device id, or "" when unknown.
func (u *Unit) DeviceID() string {
	if u.Identity == nil {
		return ""
	}
	return u.Identity.DeviceID
}

// Key is a short stable digest of the unit's path, kind and device id, used
// to refer to one discovered unit across output formats.
func (u *Unit) Key() string {
	hasher, _ := blake2b.New(16, nil)
	hasher.Write([]byte(u.Path))
	hasher.Write([]byte{0})
	hasher.Write([]byte(u.Kind.String()))
	hasher.Write([]byte{0})
	hasher.Write([]byte(u.DeviceID()))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Association pairs a device path with the label of whatever claims it. It
// only lives between reference collection and the in-use merge.
type Association struct {
	Path  string
	Label string
}
