// Package report renders decoded SCSI pages as aligned text.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/FoxDenHome/tapecrypt/scsi/page"
)

// Values start at this column regardless of label length.
const LABEL_WIDTH = 25

type builder struct {
	strings.Builder
}

func (b *builder) line(label string, value string) {
	fmt.Fprintf(b, "%-*s%s\n", LABEL_WIDTH, label, value)
}

func (b *builder) flush(w io.Writer) error {
	_, err := io.WriteString(w, b.String())
	return err
}

func Inquiry(w io.Writer, inq *page.Inquiry) error {
	var b builder
	b.line("Vendor:", inq.Vendor)
	b.line("Product ID:", inq.ProductID)
	b.line("Product Revision:", inq.ProductRevision)
	return b.flush(w)
}

func driveEncryption(des *page.DES) string {
	mode, ok := des.CryptMode()
	if !ok {
		return "unknown"
	}
	return mode.String()
}

func driveOutput(decryptionMode uint8) (string, string) {
	switch decryptionMode {
	case page.DECRYPTION_MODE_DISABLE:
		return "Not decrypting", "Raw encrypted data not outputted"
	case page.DECRYPTION_MODE_RAW:
		return "Not decrypting", "Raw encrypted data outputted"
	case page.DECRYPTION_MODE_DECRYPT:
		return "Decrypting", "Unencrypted data not outputted"
	case page.DECRYPTION_MODE_MIXED:
		return "Decrypting", "Unencrypted data outputted"
	default:
		return fmt.Sprintf("Unknown '0x%x'", decryptionMode), "Unknown data output"
	}
}

func driveInput(encryptionMode uint8) string {
	switch encryptionMode {
	case page.ENCRYPTION_MODE_DISABLE:
		return "Not encrypting"
	case page.ENCRYPTION_MODE_EXTERNAL:
		return "Encrypted externally"
	case page.ENCRYPTION_MODE_ENCRYPT:
		return "Encrypting"
	default:
		return fmt.Sprintf("Unknown result '0x%x'", encryptionMode)
	}
}

func (b *builder) kad(kad *page.KAD) {
	switch kad.Type {
	case page.KAD_TYPE_UKAD, page.KAD_TYPE_AKAD:
		b.line(fmt.Sprintf("Drive Key Desc.(%v):", kad.Type), string(kad.Descriptor))
	case page.KAD_TYPE_NONCE:
		b.line("Drive Key Nonce:", hex.EncodeToString(kad.Descriptor))
	case page.KAD_TYPE_METADATA:
		b.line("Drive Key Metadata:", hex.EncodeToString(kad.Descriptor))
	default:
		b.line(fmt.Sprintf("Drive Key Desc.(%v):", kad.Type), hex.EncodeToString(kad.Descriptor))
	}
}

// DeviceStatus renders a Device Encryption Status page. The algorithm and key
// descriptor lines only appear when the page carries key descriptors.
func DeviceStatus(w io.Writer, des *page.DES) error {
	var b builder
	b.line("Drive Encryption:", driveEncryption(des))

	decrypting, output := driveOutput(des.DecryptionMode)
	b.line("Drive Output:", decrypting)
	b.line("", output)

	b.line("Drive Input:", driveInput(des.EncryptionMode))
	if des.RDMD == 1 {
		b.line("", "Protecting from raw read")
	}

	b.line("Key Instance Counter:", fmt.Sprintf("%d", des.KeyInstance))

	if len(des.KADs) > 0 {
		b.line("Encryption Algorithm:", fmt.Sprintf("%d", des.AlgorithmIndex))
		for i := range des.KADs {
			b.kad(&des.KADs[i])
		}
	}

	return b.flush(w)
}

// VolumeStatus renders a Next Block Encryption Status page.
func VolumeStatus(w io.Writer, nbes *page.NBES) error {
	var b builder
	b.line("Volume Encryption:", nbes.EncryptionStatus.String())

	if nbes.EncryptionStatus == page.ENCRYPTION_STATUS_DECRYPTABLE && nbes.RDMDS == 1 {
		b.line("", "Protected from raw read")
	}
	if nbes.EncryptionStatus.Encrypted() {
		b.line("Volume Algorithm:", fmt.Sprintf("%d", nbes.AlgorithmIndex))
	}

	return b.flush(w)
}
