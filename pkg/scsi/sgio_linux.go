//go:build linux

package scsi

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	sgIO           = 0x2285
	sgDxferFromDev = -3
	sgInfoOkMask   = 0x1
	sgInfoOk       = 0x0
	sgTimeoutMs    = 20000
	senseLen       = 32
)

// sgIoHdr mirrors sg_io_hdr_t.
type sgIoHdr struct {
	interfaceID    int32
	dxferDirection int32
	cmdLen         uint8
	mxSbLen        uint8
	iovecCount     uint16
	dxferLen       uint32
	dxferp         uintptr
	cmdp           uintptr
	sbp            uintptr
	timeout        uint32
	flags          uint32
	packID         int32
	usrPtr         uintptr
	status         uint8
	maskedStatus   uint8
	msgStatus      uint8
	sbLenWr        uint8
	hostStatus     uint16
	driverStatus   uint16
	resid          int32
	duration       uint32
	info           uint32
}

type sgioError struct {
	scsiStatus   uint8
	hostStatus   uint16
	driverStatus uint16
}

func (e sgioError) Error() string {
	return fmt.Sprintf("SCSI status: %#02x, host status: %#02x, driver status: %#02x",
		e.scsiStatus, e.hostStatus, e.driverStatus)
}

// SGOpener opens devices for SG_IO pass-through.
type SGOpener struct{}

func (SGOpener) Open(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w", path, err)
	}
	return &sgDevice{path: path, fd: fd}, nil
}

type sgDevice struct {
	path string
	fd   int
}

func (d *sgDevice) Inquiry(cdb []byte, alloc int) ([]byte, error) {
	buf := make([]byte, alloc)
	sense := make([]byte, senseLen)

	hdr := sgIoHdr{
		interfaceID:    'S',
		dxferDirection: sgDxferFromDev,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        senseLen,
		dxferLen:       uint32(alloc),
		dxferp:         uintptr(unsafe.Pointer(&buf[0])),
		cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		sbp:            uintptr(unsafe.Pointer(&sense[0])),
		timeout:        sgTimeoutMs,
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), sgIO, uintptr(unsafe.Pointer(&hdr)))
	if errno != 0 {
		return nil, fmt.Errorf("SG_IO on %s: %w", d.path, errno)
	}
	if hdr.info&sgInfoOkMask != sgInfoOk {
		return nil, sgioError{
			scsiStatus:   hdr.status,
			hostStatus:   hdr.hostStatus,
			driverStatus: hdr.driverStatus,
		}
	}
	n := alloc - int(hdr.resid)
	if n < 0 || n > alloc {
		n = alloc
	}
	return buf[:n], nil
}

func (d *sgDevice) Close() error {
	return unix.Close(d.fd)
}
