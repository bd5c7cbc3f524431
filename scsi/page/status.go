package page

import (
	"encoding/binary"
	"fmt"

	"github.com/FoxDenHome/tapecrypt/util"
)

const (
	PAGE_CODE_DES  uint16 = 0x0020
	PAGE_CODE_NBES uint16 = 0x0021

	PAGE_HEADER_LEN = 4
	DES_HEADER_LEN  = 24
	NBES_HEADER_LEN = 16
)

// Scope values shared by the nexus and key scope fields
const (
	SCOPE_PUBLIC    uint8 = 0x00
	SCOPE_LOCAL     uint8 = 0x01
	SCOPE_ALL_NEXUS uint8 = 0x02
)

// DES is the Device Encryption Status page.
type DES struct {
	PageCode          uint16
	PageLength        uint16
	NexusScope        uint8
	KeyScope          uint8
	EncryptionMode    uint8
	DecryptionMode    uint8
	AlgorithmIndex    uint8
	KeyInstance       uint32
	ParametersControl uint8
	VCELB             uint8
	CEEMS             uint8
	RDMD              uint8
	KADFormat         uint8
	ASDKCount         uint16
	KADs              []KAD
}

// CryptMode maps the reported mode pair to a CryptMode, if it is one we set.
func (d *DES) CryptMode() (CryptMode, bool) {
	return CryptModeFromModes(d.EncryptionMode, d.DecryptionMode)
}

type EncryptionStatus uint8

const (
	ENCRYPTION_STATUS_UNKNOWN               EncryptionStatus = 0x0
	ENCRYPTION_STATUS_NOT_LOGICAL_BLOCK     EncryptionStatus = 0x2
	ENCRYPTION_STATUS_NOT_ENCRYPTED         EncryptionStatus = 0x3
	ENCRYPTION_STATUS_UNSUPPORTED_ALGORITHM EncryptionStatus = 0x4
	ENCRYPTION_STATUS_DECRYPTABLE           EncryptionStatus = 0x5
	ENCRYPTION_STATUS_NO_KEY                EncryptionStatus = 0x6
)

func (s EncryptionStatus) String() string {
	switch s {
	case ENCRYPTION_STATUS_UNKNOWN:
		return "Unable to determine"
	case ENCRYPTION_STATUS_NOT_LOGICAL_BLOCK:
		return "Logical object is not a logical block"
	case ENCRYPTION_STATUS_NOT_ENCRYPTED:
		return "Not encrypted"
	case ENCRYPTION_STATUS_UNSUPPORTED_ALGORITHM:
		return "Encrypted, but unsupported algorithm"
	case ENCRYPTION_STATUS_DECRYPTABLE:
		return "Encrypted and able to decrypt"
	case ENCRYPTION_STATUS_NO_KEY:
		return "Encrypted, but unable to decrypt due to invalid key"
	default:
		return fmt.Sprintf("Unknown result '0x%x'", uint8(s))
	}
}

// Encrypted reports whether the block was written with a supported algorithm.
func (s EncryptionStatus) Encrypted() bool {
	return s == ENCRYPTION_STATUS_DECRYPTABLE || s == ENCRYPTION_STATUS_NO_KEY
}

// NBES is the Next Block Encryption Status page.
type NBES struct {
	PageCode            uint16
	PageLength          uint16
	LogicalObjectNumber uint64
	CompressionStatus   uint8
	EncryptionStatus    EncryptionStatus
	AlgorithmIndex      uint8
	EMES                uint8
	RDMDS               uint8
	KADFormat           uint8
	KADs                []KAD
}

// pageExtent checks the common page header and returns data cut to the
// extent the header declares.
func pageExtent(name string, data []byte, pageCode uint16, headerLen int) ([]byte, error) {
	if len(data) < PAGE_HEADER_LEN {
		return nil, errShort(name, 0, PAGE_HEADER_LEN, len(data))
	}

	code := binary.BigEndian.Uint16(data[0:2])
	if code != pageCode {
		return nil, errPageCode(name, pageCode, code)
	}

	extent := PAGE_HEADER_LEN + int(binary.BigEndian.Uint16(data[2:4]))
	if extent < headerLen {
		return nil, &DecodeError{
			Page:     name,
			Offset:   2,
			Reason:   fmt.Sprintf("page length %d shorter than fixed header", extent-PAGE_HEADER_LEN),
			Expected: headerLen - PAGE_HEADER_LEN,
			Actual:   extent - PAGE_HEADER_LEN,
		}
	}
	if len(data) < extent {
		return nil, errShort(name, 0, extent, len(data))
	}

	return data[:extent], nil
}

func DecodeDES(data []byte) (*DES, error) {
	data, err := pageExtent("device encryption status", data, PAGE_CODE_DES, DES_HEADER_LEN)
	if err != nil {
		return nil, err
	}

	kads, err := decodeKADs("device encryption status", data, DES_HEADER_LEN)
	if err != nil {
		return nil, err
	}

	return &DES{
		PageCode:          binary.BigEndian.Uint16(data[0:2]),
		PageLength:        binary.BigEndian.Uint16(data[2:4]),
		NexusScope:        util.Bits(data[4], 5, 3),
		KeyScope:          util.Bits(data[4], 0, 3),
		EncryptionMode:    data[5],
		DecryptionMode:    data[6],
		AlgorithmIndex:    data[7],
		KeyInstance:       binary.BigEndian.Uint32(data[8:12]),
		ParametersControl: util.Bits(data[12], 4, 3),
		VCELB:             util.Bits(data[12], 3, 1),
		CEEMS:             util.Bits(data[12], 1, 2),
		RDMD:              util.Bits(data[12], 0, 1),
		KADFormat:         data[13],
		ASDKCount:         binary.BigEndian.Uint16(data[14:16]),
		KADs:              kads,
	}, nil
}

func DecodeNBES(data []byte) (*NBES, error) {
	data, err := pageExtent("next block encryption status", data, PAGE_CODE_NBES, NBES_HEADER_LEN)
	if err != nil {
		return nil, err
	}

	kads, err := decodeKADs("next block encryption status", data, NBES_HEADER_LEN)
	if err != nil {
		return nil, err
	}

	return &NBES{
		PageCode:            binary.BigEndian.Uint16(data[0:2]),
		PageLength:          binary.BigEndian.Uint16(data[2:4]),
		LogicalObjectNumber: binary.BigEndian.Uint64(data[4:12]),
		CompressionStatus:   util.Bits(data[12], 4, 4),
		EncryptionStatus:    EncryptionStatus(util.Bits(data[12], 0, 4)),
		AlgorithmIndex:      data[13],
		EMES:                util.Bits(data[14], 1, 1),
		RDMDS:               util.Bits(data[14], 0, 1),
		KADFormat:           data[15],
		KADs:                kads,
	}, nil
}
