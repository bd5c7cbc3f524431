package util

func BoolToFlag(val bool, pos uint8) uint8 {
	if val {
		return 1 << pos
	}
	return 0
}

// Bits extracts the width-bit field whose least significant bit sits at pos.
func Bits(flag uint8, pos uint8, width uint8) uint8 {
	return (flag >> pos) & (1<<width - 1)
}

// PutBits places the low width bits of val at pos.
func PutBits(val uint8, pos uint8, width uint8) uint8 {
	return (val & (1<<width - 1)) << pos
}
