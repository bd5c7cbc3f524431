package drive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FoxDenHome/tapecrypt/scsi"
	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

var ErrNotTape = errors.New("device is not a tape drive")

var sysfsRoot = "/sys"

const READY_TIMEOUT = 2 * time.Minute

type TapeDrive struct {
	DevicePath  string
	GenericPath string
}

// NewTapeDrive resolves the SCSI generic node behind a tape device such as
// /dev/nst0. Generic nodes (/dev/sgN) are used as they are.
func NewTapeDrive(devicePath string) (*TapeDrive, error) {
	devName := filepath.Base(devicePath)
	if strings.HasPrefix(devName, "sg") {
		return &TapeDrive{
			DevicePath:  devicePath,
			GenericPath: devicePath,
		}, nil
	}

	// nst0, st0 and their mode variants (nst0a, st0l, ...) share one sysfs entry
	devName = strings.TrimPrefix(devName, "n")
	devName = strings.TrimRight(devName, "lma")
	genericLink := filepath.Join(sysfsRoot, "class", "scsi_tape", devName, "device", "generic")

	linkDest, err := os.Readlink(genericLink)
	if err != nil {
		return nil, fmt.Errorf("failed to find SCSI generic device for %s: %w", devicePath, err)
	}

	return &TapeDrive{
		DevicePath:  devicePath,
		GenericPath: fmt.Sprintf("/dev/%s", filepath.Base(linkDest)),
	}, nil
}

func (d *TapeDrive) withDevice(fn func(dev *scsi.SCSIDevice) error) error {
	dev, err := scsi.Open(d.GenericPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = dev.Close()
	}()

	return fn(dev)
}

func (d *TapeDrive) Inquiry() (inq *page.Inquiry, err error) {
	err = d.withDevice(func(dev *scsi.SCSIDevice) error {
		inq, err = dev.Inquiry()
		return err
	})
	return
}

func (d *TapeDrive) EncryptionStatus() (des *page.DES, err error) {
	err = d.withDevice(func(dev *scsi.SCSIDevice) error {
		des, err = dev.DeviceEncryptionStatus()
		return err
	})
	return
}

// VolumeStatus returns scsi.ErrNoMedium when no tape is loaded.
func (d *TapeDrive) VolumeStatus() (nbes *page.NBES, err error) {
	err = d.withDevice(func(dev *scsi.SCSIDevice) error {
		nbes, err = dev.NextBlockEncryptionStatus()
		return err
	})
	return
}

// SetEncryption checks that the device is a tape drive, waits for a loading
// tape to settle and sends the Set Data Encryption page built from opts.
// An empty drive accepts the page, so a missing tape is not waited on.
func (d *TapeDrive) SetEncryption(opts *page.EncryptOptions) error {
	return d.withDevice(func(dev *scsi.SCSIDevice) error {
		inq, err := dev.Inquiry()
		if err != nil {
			return err
		}
		if !inq.IsTape() {
			return fmt.Errorf("%s: %w", d.DevicePath, ErrNotTape)
		}

		err = dev.WaitForReady(READY_TIMEOUT)
		if err != nil && !errors.Is(err, scsi.ErrNoMedium) {
			return fmt.Errorf("%s did not become ready: %w", d.DevicePath, err)
		}

		return dev.SetDataEncryption(opts)
	})
}
