package scsi

import (
	"golang.org/x/sys/unix"
)

type SCSIDevice struct {
	path string
	fd   int
}

// Open opens a SCSI generic device node such as /dev/sg0.
func Open(path string) (*SCSIDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &SCSIDevice{path: path, fd: fd}, nil
}

func (d *SCSIDevice) Close() error {
	return unix.Close(d.fd)
}
