package util

import (
	"fmt"
	"unicode/utf8"
)

type ParseError struct {
	Input  string
	Offset int
	Char   byte
}

// Error names the offending character, decoding multi-byte UTF-8 sequences
// and falling back to the raw byte value.
func (e *ParseError) Error() string {
	if e.Offset >= 0 && e.Offset < len(e.Input) {
		r, _ := utf8.DecodeRuneInString(e.Input[e.Offset:])
		if r != utf8.RuneError {
			return fmt.Sprintf("invalid hex character %q at offset %d", r, e.Offset)
		}
	}
	return fmt.Sprintf("invalid hex byte %#02x at offset %d", e.Char, e.Offset)
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ParseHexKey decodes a string of hex digits into key bytes. An odd number of
// digits is treated as if a leading zero was present, so "a" yields 0x0a.
func ParseHexKey(s string) ([]byte, error) {
	key := make([]byte, (len(s)+1)/2)

	// pos counts digits in the zero-padded string
	pos := len(s) % 2
	for i := 0; i < len(s); i++ {
		nibble, ok := hexNibble(s[i])
		if !ok {
			return nil, &ParseError{Input: s, Offset: i, Char: s[i]}
		}
		if pos%2 == 0 {
			key[pos/2] = nibble << 4
		} else {
			key[pos/2] |= nibble
		}
		pos++
	}

	return key, nil
}
