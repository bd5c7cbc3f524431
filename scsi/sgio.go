package scsi

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

type direction int32

const (
	SG_DXFER_NONE     direction = -1
	SG_DXFER_TO_DEV   direction = -2
	SG_DXFER_FROM_DEV direction = -3

	SG_IO = 0x2285

	SG_INFO_OK_MASK = 0x1
	SG_INFO_OK      = 0x0

	SENSE_BUF_LEN   = 32
	DEFAULT_TIMEOUT = 20 * time.Second
)

// sg_io_hdr_t from <scsi/sg.h>
type sgIoHdr struct {
	interfaceID    int32
	dxferDirection direction
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

type SgioError struct {
	ScsiStatus   uint8
	HostStatus   uint16
	DriverStatus uint16
	Sense        *Sense
}

func (e *SgioError) Error() string {
	msg := fmt.Sprintf("SCSI status: %#02x, host status: %#02x, driver status: %#02x",
		e.ScsiStatus, e.HostStatus, e.DriverStatus)
	if e.Sense != nil {
		msg += ", " + e.Sense.String()
	}
	return msg
}

func (e *SgioError) Is(target error) bool {
	if e.Sense == nil {
		return false
	}
	switch target {
	case ErrNotSupported:
		return e.Sense.Key == SENSE_KEY_ILLEGAL_REQUEST
	case ErrNoMedium:
		return e.Sense.Key == SENSE_KEY_NOT_READY && e.Sense.ASC == ASC_MEDIUM_NOT_PRESENT
	case ErrNotReady:
		return e.Sense.Key == SENSE_KEY_NOT_READY
	}
	return false
}

func (d *SCSIDevice) request(cdb []byte, dir direction, data []byte) error {
	return d.requestWithTimeout(cdb, dir, data, DEFAULT_TIMEOUT)
}

func (d *SCSIDevice) requestWithTimeout(cdb []byte, dir direction, data []byte, timeout time.Duration) error {
	senseBuf := make([]byte, SENSE_BUF_LEN)

	hdr := sgIoHdr{
		interfaceID:    'S',
		dxferDirection: dir,
		cmdLen:         uint8(len(cdb)),
		mxSbLen:        uint8(len(senseBuf)),
		cmdp:           uintptr(unsafe.Pointer(&cdb[0])),
		sbp:            uintptr(unsafe.Pointer(&senseBuf[0])),
		timeout:        uint32(timeout.Milliseconds()),
	}
	if len(data) > 0 {
		hdr.dxferLen = uint32(len(data))
		hdr.dxferp = uintptr(unsafe.Pointer(&data[0]))
	} else {
		hdr.dxferDirection = SG_DXFER_NONE
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), SG_IO, uintptr(unsafe.Pointer(&hdr)))
	runtime.KeepAlive(cdb)
	runtime.KeepAlive(data)
	runtime.KeepAlive(senseBuf)
	if errno != 0 {
		return fmt.Errorf("SG_IO ioctl on %s: %w", d.path, errno)
	}

	if hdr.info&SG_INFO_OK_MASK != SG_INFO_OK {
		err := &SgioError{
			ScsiStatus:   hdr.status,
			HostStatus:   hdr.hostStatus,
			DriverStatus: hdr.driverStatus,
		}
		if hdr.sbLenWr > 0 {
			err.Sense = ParseSense(senseBuf[:hdr.sbLenWr])
		}
		return err
	}

	return nil
}
