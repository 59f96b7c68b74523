package fake

import (
	"fmt"
	"sync"

	"github.com/samqfs/au-discovery/pkg/scsi"
)

// Device answers inquiries from canned responses. A nil page response
// fails the command.
type Device struct {
	Standard []byte
	Pages    map[byte][]byte
}

// Opener hands out fake devices by path and records the inquiries issued.
type Opener struct {
	mu      sync.Mutex
	Devices map[string]*Device
	Issued  []string
}

func NewOpener() *Opener {
	return &Opener{Devices: map[string]*Device{}}
}

// Add registers a device at path.
func (o *Opener) Add(path string, dev *Device) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Devices[path] = dev
	return o
}

func (o *Opener) Open(path string) (scsi.Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	dev, ok := o.Devices[path]
	if !ok {
		return nil, fmt.Errorf("can't open %s: no such device", path)
	}
	return &openDevice{opener: o, path: path, dev: dev}, nil
}

func (o *Opener) record(path string, cdb []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Issued = append(o.Issued, fmt.Sprintf("%s %x", path, cdb))
}

type openDevice struct {
	opener *Opener
	path   string
	dev    *Device
}

func (d *openDevice) Inquiry(cdb []byte, alloc int) ([]byte, error) {
	d.opener.record(d.path, cdb)
	var resp []byte
	if cdb[1]&1 == 0 {
		resp = d.dev.Standard
	} else {
		resp = d.dev.Pages[cdb[2]]
	}
	if resp == nil {
		return nil, fmt.Errorf("check condition on %s", d.path)
	}
	if len(resp) > alloc {
		resp = resp[:alloc]
	}
	return resp, nil
}

func (d *openDevice) Close() error {
	return nil
}

// StandardInquiry builds a 40 byte standard inquiry response.
func StandardInquiry(vendor, product, revision string) []byte {
	buf := make([]byte, scsi.StandardInquiryLen)
	pad := func(dst []byte, s string) {
		for i := range dst {
			dst[i] = ' '
		}
		copy(dst, s)
	}
	pad(buf[8:16], vendor)
	pad(buf[16:32], product)
	pad(buf[32:36], revision)
	return buf
}

// Descriptor is one identification descriptor of page 0x83.
type Descriptor struct {
	Type byte
	Data []byte
}

// DeviceIDPage builds a page 0x83 response from descriptors.
func DeviceIDPage(descs ...Descriptor) []byte {
	buf := []byte{0, scsi.PageDeviceID, 0, 0}
	for _, d := range descs {
		buf = append(buf, 0x01, d.Type, 0, byte(len(d.Data)))
		buf = append(buf, d.Data...)
	}
	buf[3] = byte(len(buf) - 4)
	return buf
}

// SerialPage builds a page 0x80 response.
func SerialPage(serial string) []byte {
	buf := []byte{0, scsi.PageSerialNumber, 0, byte(len(serial))}
	return append(buf, serial...)
}
