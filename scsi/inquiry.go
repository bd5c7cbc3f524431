package scsi

import (
	scsidefs "github.com/FoxDenHome/goscsi/godefs/scsi"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

const INQUIRY_ALLOC_LEN = 96

func inquiryCDB(allocLen uint8) []byte {
	return []byte{
		scsidefs.INQUIRY,
		0x00, // EVPD = 0, standard inquiry data
		0x00, // Page code
		0x00,
		allocLen,
		0x00, // Control byte, always 0
	}
}

func (d *SCSIDevice) Inquiry() (*page.Inquiry, error) {
	resp := make([]byte, INQUIRY_ALLOC_LEN)
	err := d.request(inquiryCDB(INQUIRY_ALLOC_LEN), SG_DXFER_FROM_DEV, resp)
	if err != nil {
		return nil, err
	}
	return page.DecodeInquiry(resp)
}
