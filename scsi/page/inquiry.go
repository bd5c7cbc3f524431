package page

import "github.com/FoxDenHome/tapecrypt/util"

// Minimum length of standard INQUIRY response
const INQUIRY_MIN_LEN = 36

const (
	PERIPHERAL_DEVICE_TYPE_DISK       uint8 = 0x00
	PERIPHERAL_DEVICE_TYPE_SEQUENTIAL uint8 = 0x01
	PERIPHERAL_DEVICE_TYPE_CHANGER    uint8 = 0x08
)

// Inquiry holds the identification fields of a standard INQUIRY response.
// Vendor, ProductID and ProductRevision keep their space padding.
type Inquiry struct {
	PeripheralQualifier  uint8
	PeripheralDeviceType uint8
	Vendor               string
	ProductID            string
	ProductRevision      string
}

func DecodeInquiry(data []byte) (*Inquiry, error) {
	if len(data) < INQUIRY_MIN_LEN {
		return nil, errShort("inquiry", 0, INQUIRY_MIN_LEN, len(data))
	}

	return &Inquiry{
		PeripheralQualifier:  util.Bits(data[0], 5, 3),
		PeripheralDeviceType: util.Bits(data[0], 0, 5),
		Vendor:               string(data[8:16]),
		ProductID:            string(data[16:32]),
		ProductRevision:      string(data[32:36]),
	}, nil
}

func (i *Inquiry) IsTape() bool {
	return i.PeripheralQualifier == 0 && i.PeripheralDeviceType == PERIPHERAL_DEVICE_TYPE_SEQUENTIAL
}
