package scsi

import (
	"errors"
	"time"

	scsidefs "github.com/FoxDenHome/goscsi/godefs/scsi"
)

var readyPollInterval = time.Second

func (d *SCSIDevice) TestUnitReady() (bool, error) {
	return unitReady(d.request([]byte{
		scsidefs.TEST_UNIT_READY, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, SG_DXFER_NONE, nil))
}

// unitReady maps the TEST UNIT READY result. A drive that is becoming ready is
// not an error, a drive without medium is.
func unitReady(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoMedium):
		return false, err
	case errors.Is(err, ErrNotReady):
		return false, nil
	default:
		return false, err
	}
}

// WaitForReady polls TEST UNIT READY until the drive reports ready or the
// timeout expires. It returns ErrNoMedium right away when no tape is loaded.
func (d *SCSIDevice) WaitForReady(timeout time.Duration) error {
	return pollReady(d.TestUnitReady, timeout)
}

func pollReady(check func() (bool, error), timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := check()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrNotReady
		}
		time.Sleep(readyPollInterval)
	}
}
