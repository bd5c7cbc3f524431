package page

import (
	"fmt"
	"strings"
)

const (
	ENCRYPTION_MODE_DISABLE  uint8 = 0x00
	ENCRYPTION_MODE_EXTERNAL uint8 = 0x01
	ENCRYPTION_MODE_ENCRYPT  uint8 = 0x02

	DECRYPTION_MODE_DISABLE uint8 = 0x00
	DECRYPTION_MODE_RAW     uint8 = 0x01
	DECRYPTION_MODE_DECRYPT uint8 = 0x02
	DECRYPTION_MODE_MIXED   uint8 = 0x03
)

type CryptMode uint8

const (
	CRYPT_MODE_OFF CryptMode = iota
	CRYPT_MODE_ON
	CRYPT_MODE_MIXED
	CRYPT_MODE_RAWREAD
)

var CryptModes = []CryptMode{CRYPT_MODE_OFF, CRYPT_MODE_ON, CRYPT_MODE_MIXED, CRYPT_MODE_RAWREAD}

// Modes returns the encryption and decryption mode pair sent to the drive.
func (m CryptMode) Modes() (encryption uint8, decryption uint8, ok bool) {
	switch m {
	case CRYPT_MODE_OFF:
		return ENCRYPTION_MODE_DISABLE, DECRYPTION_MODE_DISABLE, true
	case CRYPT_MODE_ON:
		return ENCRYPTION_MODE_ENCRYPT, DECRYPTION_MODE_DECRYPT, true
	case CRYPT_MODE_MIXED:
		return ENCRYPTION_MODE_ENCRYPT, DECRYPTION_MODE_MIXED, true
	case CRYPT_MODE_RAWREAD:
		return ENCRYPTION_MODE_ENCRYPT, DECRYPTION_MODE_RAW, true
	default:
		return 0, 0, false
	}
}

func (m CryptMode) String() string {
	switch m {
	case CRYPT_MODE_OFF:
		return "off"
	case CRYPT_MODE_ON:
		return "on"
	case CRYPT_MODE_MIXED:
		return "mixed"
	case CRYPT_MODE_RAWREAD:
		return "rawread"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// NeedsKey reports whether the mode requires key material.
func (m CryptMode) NeedsKey() bool {
	return m != CRYPT_MODE_OFF
}

func ParseCryptMode(s string) (CryptMode, error) {
	for _, mode := range CryptModes {
		if strings.EqualFold(s, mode.String()) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown encryption mode %q", s)
}

// CryptModeFromModes maps a mode pair reported by the drive back to a CryptMode.
func CryptModeFromModes(encryption uint8, decryption uint8) (CryptMode, bool) {
	for _, mode := range CryptModes {
		enc, dec, _ := mode.Modes()
		if enc == encryption && dec == decryption {
			return mode, true
		}
	}
	return 0, false
}
