package scsi

import (
	"errors"
	"fmt"
)

var (
	ErrNotSupported = errors.New("request not supported by device")
	ErrNotReady     = errors.New("device not ready")
	ErrNoMedium     = errors.New("no medium present")
)

type SenseKey uint8

const (
	SENSE_KEY_NO_SENSE        SenseKey = 0x00
	SENSE_KEY_RECOVERED_ERROR SenseKey = 0x01
	SENSE_KEY_NOT_READY       SenseKey = 0x02
	SENSE_KEY_MEDIUM_ERROR    SenseKey = 0x03
	SENSE_KEY_HARDWARE_ERROR  SenseKey = 0x04
	SENSE_KEY_ILLEGAL_REQUEST SenseKey = 0x05
	SENSE_KEY_UNIT_ATTENTION  SenseKey = 0x06
	SENSE_KEY_DATA_PROTECT    SenseKey = 0x07
	SENSE_KEY_ABORTED_COMMAND SenseKey = 0x0b

	ASC_MEDIUM_NOT_PRESENT = 0x3a
)

func (k SenseKey) String() string {
	switch k {
	case SENSE_KEY_NO_SENSE:
		return "No Sense"
	case SENSE_KEY_RECOVERED_ERROR:
		return "Recovered Error"
	case SENSE_KEY_NOT_READY:
		return "Not Ready"
	case SENSE_KEY_MEDIUM_ERROR:
		return "Medium Error"
	case SENSE_KEY_HARDWARE_ERROR:
		return "Hardware Error"
	case SENSE_KEY_ILLEGAL_REQUEST:
		return "Illegal Request"
	case SENSE_KEY_UNIT_ATTENTION:
		return "Unit Attention"
	case SENSE_KEY_DATA_PROTECT:
		return "Data Protect"
	case SENSE_KEY_ABORTED_COMMAND:
		return "Aborted Command"
	default:
		return fmt.Sprintf("Sense Key %#02x", uint8(k))
	}
}

type Sense struct {
	ResponseCode uint8
	Key          SenseKey
	ASC          uint8
	ASCQ         uint8
}

// ParseSense decodes fixed (70h/71h) and descriptor (72h/73h) format sense data.
// Unknown formats and short buffers yield nil.
func ParseSense(data []byte) *Sense {
	if len(data) < 1 {
		return nil
	}

	code := data[0] & 0x7f
	switch code {
	case 0x70, 0x71:
		if len(data) < 14 {
			return nil
		}
		return &Sense{ResponseCode: code, Key: SenseKey(data[2] & 0x0f), ASC: data[12], ASCQ: data[13]}
	case 0x72, 0x73:
		if len(data) < 4 {
			return nil
		}
		return &Sense{ResponseCode: code, Key: SenseKey(data[1] & 0x0f), ASC: data[2], ASCQ: data[3]}
	default:
		return nil
	}
}

func (s *Sense) String() string {
	return fmt.Sprintf("sense key: %v, ASC/ASCQ: %02x/%02x", s.Key, s.ASC, s.ASCQ)
}
