package udev

import (
	"path/filepath"
)

// key and env of udev uevent.
const (
	// UdevSubsystem is the only subsystem whose events can change the unit set
	UdevSubsystem = "block"
	// UdevDisk and UdevPartition are the device types worth a rediscovery
	UdevDisk      = "disk"
	UdevPartition = "partition"

	UdevDevname      = "DEVNAME"
	UdevDevtype      = "DEVTYPE"
	UdevSubsystemKey = "SUBSYSTEM"
	UdevIDPath       = "ID_PATH"
	UdevVendor       = "ID_VENDOR"
	UdevModel        = "ID_MODEL"
	UdevWWN          = "ID_WWN"
)

type Device map[string]string

func InitUdevDevice(udev map[string]string) Device {
	return udev
}

// IsBlock check if the event belongs to the block subsystem. Events without a
// subsystem key are accepted.
func (device Device) IsBlock() bool {
	s, ok := device[UdevSubsystemKey]
	return !ok || s == UdevSubsystem
}

// IsDisk check if device is a disk
func (device Device) IsDisk() bool {
	return device[UdevDevtype] == UdevDisk
}

// IsPartition check if device is a partition
func (device Device) IsPartition() bool {
	return device[UdevDevtype] == UdevPartition
}

// GetDevName returns the path of device in /dev directory
func (device Device) GetDevName() string {
	return device[UdevDevname]
}

// GetShortName returns the short device name, e.g /dev/sda will return the name sda
func (device Device) GetShortName() string {
	name := device[UdevDevname]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

func (device Device) GetIDPath() string {
	return device[UdevIDPath]
}

func (device Device) GetWWN() string {
	return device[UdevWWN]
}
