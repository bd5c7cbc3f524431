package scsi

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

const (
	SECURITY_PROTOCOL_IN  = 0xA2
	SECURITY_PROTOCOL_OUT = 0xB5

	SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION = 0x20

	SPIN_BUFFER_LEN = 8192
)

func securityProtocolCDB(opcode uint8, protocol uint8, specific uint16, length uint32) []byte {
	cdb := make([]byte, 12)
	cdb[0] = opcode
	cdb[1] = protocol
	binary.BigEndian.PutUint16(cdb[2:4], specific)
	cdb[4] = 0x00 // INC_512 = 0, length is in bytes
	binary.BigEndian.PutUint32(cdb[6:10], length)
	return cdb
}

func (d *SCSIDevice) SecurityProtocolIn(protocol uint8, specific uint16, length uint32) ([]byte, error) {
	resp := make([]byte, length)
	err := d.request(securityProtocolCDB(SECURITY_PROTOCOL_IN, protocol, specific, length), SG_DXFER_FROM_DEV, resp)
	if err != nil {
		return nil, fmt.Errorf("SECURITY PROTOCOL IN %#02x/%#04x: %w", protocol, specific, err)
	}
	return resp, nil
}

func (d *SCSIDevice) SecurityProtocolOut(protocol uint8, specific uint16, data []byte) error {
	// Key changes can wait for the drive to finish writing buffered data
	err := d.requestWithTimeout(securityProtocolCDB(SECURITY_PROTOCOL_OUT, protocol, specific, uint32(len(data))), SG_DXFER_TO_DEV, data, time.Minute*5)
	if err != nil {
		return fmt.Errorf("SECURITY PROTOCOL OUT %#02x/%#04x: %w", protocol, specific, err)
	}
	return nil
}

func (d *SCSIDevice) DeviceEncryptionStatus() (*page.DES, error) {
	resp, err := d.SecurityProtocolIn(SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION, page.PAGE_CODE_DES, SPIN_BUFFER_LEN)
	if err != nil {
		return nil, err
	}
	return page.DecodeDES(resp)
}

func (d *SCSIDevice) NextBlockEncryptionStatus() (*page.NBES, error) {
	resp, err := d.SecurityProtocolIn(SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION, page.PAGE_CODE_NBES, SPIN_BUFFER_LEN)
	if err != nil {
		return nil, err
	}
	return page.DecodeNBES(resp)
}

func (d *SCSIDevice) SetDataEncryption(opts *page.EncryptOptions) error {
	data, err := page.EncodeSDE(opts)
	if err != nil {
		return err
	}
	defer clear(data)

	return d.SecurityProtocolOut(SECURITY_PROTOCOL_TAPE_DATA_ENCRYPTION, page.PAGE_CODE_SDE, data)
}
