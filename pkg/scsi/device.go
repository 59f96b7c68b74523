package scsi

// Device is an open SCSI target.
type Device interface {
	// Inquiry issues cdb and returns the bytes actually transferred.
	Inquiry(cdb []byte, alloc int) ([]byte, error)
	Close() error
}

// Opener opens a raw device node for pass-through commands.
type Opener interface {
	Open(path string) (Device, error)
}
