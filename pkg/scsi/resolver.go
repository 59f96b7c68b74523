package scsi

import (
	"github.com/sirupsen/logrus"

	"github.com/samqfs/au-discovery/pkg/au"
	"github.com/samqfs/au-discovery/pkg/utils"
)

// Resolver derives the hardware identity of a raw device node.
type Resolver struct {
	Opener Opener
	// Inventory is consulted when the device cannot be inquired directly.
	Inventory Inventory
	// ExcludedVendors are known not to conform on page 0x83.
	ExcludedVendors []string
}

func NewResolver(opener Opener, inventory Inventory, excludedVendors []string) *Resolver {
	return &Resolver{Opener: opener, Inventory: inventory, ExcludedVendors: excludedVendors}
}

// Resolve inquires the device at path. A nil identity means the standard
// inquiry failed. A non-nil identity may come back together with an error
// when the device id could not be decoded; its DeviceID is then empty.
func (r *Resolver) Resolve(path string) (*au.Identity, error) {
	path = au.RawPath(au.GlobalToDID(path))
	log := logrus.WithField("path", path)

	dev, err := r.Opener.Open(path)
	if err != nil {
		log.Debugf("can't get scsi info: %v", err)
		return r.fromInventory(path, au.NewError(au.ErrIO, path, err))
	}
	defer dev.Close()

	data, err := dev.Inquiry(InquiryCDB(false, 0, StandardInquiryLen), StandardInquiryLen)
	if err != nil {
		log.Debugf("standard inquiry failed: %v", err)
		return r.fromInventory(path, au.NewError(au.ErrIO, path, err))
	}
	id, err := ParseStandardInquiry(data)
	if err != nil {
		return nil, au.NewError(au.ErrParse, path, err)
	}

	var idErr error
	if !utils.MatchesIgnoredCase(r.ExcludedVendors, id.Vendor) {
		id.DeviceID, idErr = r.deviceID(dev)
		if idErr != nil {
			log.Debugf("device id inquiry failed: %v", idErr)
		}
	}
	if id.DeviceID == "" {
		serial, err := r.serial(dev)
		if err != nil {
			log.Debugf("serial number inquiry failed: %v", err)
		} else {
			id.DeviceID = serial
			idErr = nil
		}
	}
	if idErr != nil {
		return id, &au.Error{Kind: au.ErrParse, Path: path, Backend: "scsi", Err: idErr}
	}
	return id, nil
}

func (r *Resolver) deviceID(dev Device) (string, error) {
	data, err := dev.Inquiry(InquiryCDB(true, PageDeviceID, MaxPageLen), MaxPageLen)
	if err != nil {
		return "", err
	}
	return ParseDeviceIDPage(data)
}

func (r *Resolver) serial(dev Device) (string, error) {
	data, err := dev.Inquiry(InquiryCDB(true, PageSerialNumber, MaxPageLen), MaxPageLen)
	if err != nil {
		return "", err
	}
	return ParseSerialPage(data)
}

func (r *Resolver) fromInventory(path string, cause error) (*au.Identity, error) {
	if r.Inventory == nil {
		return nil, cause
	}
	if id := r.Inventory.Lookup(path); id != nil {
		logrus.Debugf("identity of %s taken from host inventory", path)
		return id, nil
	}
	return nil, cause
}
