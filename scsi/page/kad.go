package page

import (
	"encoding/binary"
	"fmt"
	"math"
)

const KAD_HEADER_LEN = 4

type KADType uint8

const (
	KAD_TYPE_UKAD     KADType = 0x00
	KAD_TYPE_AKAD     KADType = 0x01
	KAD_TYPE_NONCE    KADType = 0x02
	KAD_TYPE_METADATA KADType = 0x03
)

func (t KADType) String() string {
	switch t {
	case KAD_TYPE_UKAD:
		return "uKAD"
	case KAD_TYPE_AKAD:
		return "aKAD"
	case KAD_TYPE_NONCE:
		return "Nonce"
	case KAD_TYPE_METADATA:
		return "Metadata"
	default:
		return fmt.Sprintf("0x%02x", uint8(t))
	}
}

// KAD is a key-associated data descriptor.
type KAD struct {
	Type          KADType
	Authenticated uint8
	Descriptor    []byte
}

func (k *KAD) Len() int {
	return KAD_HEADER_LEN + len(k.Descriptor)
}

func (k *KAD) putTo(buf []byte) (int, error) {
	if len(k.Descriptor) > math.MaxUint16 {
		return 0, &ValidationError{
			Field:  "key descriptor",
			Reason: fmt.Sprintf("length %d does not fit in 16 bits", len(k.Descriptor)),
		}
	}
	if len(buf) < k.Len() {
		return 0, &ValidationError{
			Field:  "buffer",
			Reason: fmt.Sprintf("too small for key descriptor: need %d, have %d", k.Len(), len(buf)),
		}
	}

	buf[0] = uint8(k.Type)
	buf[1] = k.Authenticated
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(k.Descriptor)))
	copy(buf[KAD_HEADER_LEN:], k.Descriptor)
	return k.Len(), nil
}

// decodeKADs reads descriptors from data[pos:] until data is exhausted.
// data must already be cut to the extent declared by the page header.
func decodeKADs(page string, data []byte, pos int) ([]KAD, error) {
	var kads []KAD
	for pos < len(data) {
		if len(data)-pos < KAD_HEADER_LEN {
			return nil, &DecodeError{
				Page:     page,
				Offset:   pos,
				Reason:   fmt.Sprintf("truncated key descriptor header: %d bytes left", len(data)-pos),
				Expected: KAD_HEADER_LEN,
				Actual:   len(data) - pos,
			}
		}

		length := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		end := pos + KAD_HEADER_LEN + length
		if end > len(data) {
			return nil, &DecodeError{
				Page:     page,
				Offset:   pos,
				Reason:   fmt.Sprintf("key descriptor length %d runs past page end at %d", length, len(data)),
				Expected: end,
				Actual:   len(data),
			}
		}

		descriptor := make([]byte, length)
		copy(descriptor, data[pos+KAD_HEADER_LEN:end])
		kads = append(kads, KAD{
			Type:          KADType(data[pos]),
			Authenticated: data[pos+1],
			Descriptor:    descriptor,
		})
		pos = end
	}
	return kads, nil
}
