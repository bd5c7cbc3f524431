package page

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FoxDenHome/tapecrypt/util"
)

const (
	PAGE_CODE_SDE uint16 = 0x0010

	SDE_HEADER_LEN = 20
	SDE_KEY_LEN    = 32
	SDE_LEN        = SDE_HEADER_LEN + SDE_KEY_LEN

	// Scope: all I_T nexuses
	SDE_SCOPE_ALL_NEXUS = 0x02 << 5

	KEY_FORMAT_PLAINTEXT = 0x00
)

// Raw decryption mode control
const (
	RDMC_DEFAULT   uint8 = 0x00
	RDMC_UNPROTECT uint8 = 0x02
	RDMC_PROTECT   uint8 = 0x03
)

// Check external encryption mode
const (
	CEEM_VENDOR   uint8 = 0x00
	CEEM_NO_CHECK uint8 = 0x01
	CEEM_CHECK    uint8 = 0x02

	DEFAULT_CEEM = CEEM_VENDOR
)

type EncryptOptions struct {
	CryptMode      CryptMode
	AlgorithmIndex uint8
	Key            []byte
	KeyName        []byte
	// Clear key on demount
	CKOD bool
	RDMC uint8
	CEEM uint8
}

func (o *EncryptOptions) kad() *KAD {
	if len(o.KeyName) == 0 {
		return nil
	}
	return &KAD{
		Type:          KAD_TYPE_UKAD,
		Authenticated: 0,
		Descriptor:    o.KeyName,
	}
}

// Len returns the number of bytes EncodeSDE produces for these options.
func (o *EncryptOptions) Len() int {
	if kad := o.kad(); kad != nil {
		return SDE_LEN + kad.Len()
	}
	return SDE_LEN
}

func (o *EncryptOptions) Validate() error {
	if _, _, ok := o.CryptMode.Modes(); !ok {
		return &ValidationError{Field: "encryption mode", Reason: fmt.Sprintf("unsupported mode %v", o.CryptMode)}
	}

	if o.CryptMode.NeedsKey() {
		if len(o.Key) != SDE_KEY_LEN {
			return &ValidationError{
				Field:  "key",
				Reason: fmt.Sprintf("mode %v needs a %d byte key, got %d bytes", o.CryptMode, SDE_KEY_LEN, len(o.Key)),
			}
		}
	} else if len(o.Key) != 0 {
		return &ValidationError{
			Field:  "key",
			Reason: fmt.Sprintf("mode %v takes no key, got %d bytes", o.CryptMode, len(o.Key)),
		}
	}

	if o.RDMC > 0b11 {
		return &ValidationError{Field: "raw decryption mode control", Reason: fmt.Sprintf("value %d does not fit in 2 bits", o.RDMC)}
	}
	if o.CEEM > 0b11 {
		return &ValidationError{Field: "check external encryption mode", Reason: fmt.Sprintf("value %d does not fit in 2 bits", o.CEEM)}
	}

	if pageLength := o.Len() - 4; pageLength > math.MaxUint16 {
		return &ValidationError{
			Field:  "key name",
			Reason: fmt.Sprintf("%d bytes make the page length %d overflow 16 bits", len(o.KeyName), pageLength),
		}
	}

	return nil
}

// PutSDE writes the Set Data Encryption page for opts into buf and returns
// the number of bytes written. Nothing is written when opts are invalid.
func PutSDE(buf []byte, opts *EncryptOptions) (int, error) {
	err := opts.Validate()
	if err != nil {
		return 0, err
	}
	if len(buf) < opts.Len() {
		return 0, &ValidationError{
			Field:  "buffer",
			Reason: fmt.Sprintf("too small for page: need %d, have %d", opts.Len(), len(buf)),
		}
	}

	encryptionMode, decryptionMode, _ := opts.CryptMode.Modes()

	binary.BigEndian.PutUint16(buf[0:2], PAGE_CODE_SDE)
	buf[4] = SDE_SCOPE_ALL_NEXUS
	buf[5] = util.PutBits(opts.CEEM, 6, 2) | util.BoolToFlag(opts.CKOD, 5) | util.PutBits(opts.RDMC, 1, 2)
	buf[6] = encryptionMode
	buf[7] = decryptionMode
	buf[8] = opts.AlgorithmIndex
	buf[9] = KEY_FORMAT_PLAINTEXT
	clear(buf[10:18])
	binary.BigEndian.PutUint16(buf[18:20], SDE_KEY_LEN)

	key := buf[SDE_HEADER_LEN:SDE_LEN]
	clear(key)
	copy(key, opts.Key)

	pos := SDE_LEN
	if kad := opts.kad(); kad != nil {
		n, err := kad.putTo(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
	}

	binary.BigEndian.PutUint16(buf[2:4], uint16(pos-4))
	return pos, nil
}

// EncodeSDE returns the Set Data Encryption page for opts.
func EncodeSDE(opts *EncryptOptions) ([]byte, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, opts.Len())
	n, err := PutSDE(buf, opts)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
