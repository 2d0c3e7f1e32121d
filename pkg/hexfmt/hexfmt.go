// Package hexfmt renders and builds the byte strings that show up in card
// traces, reports and test fixtures.
package hexfmt

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex constructs a byte slice from a series of hex strings.
// Spaces are ignored so fixtures can be written as "90 6A 00 00 00".
// It panics on invalid input and is meant for constants and tests.
func Hex(parts ...string) []byte {
	cleanHex := strings.ReplaceAll(strings.Join(parts, ""), " ", "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}

// Upper returns the uppercase hex encoding of data, without separators.
func Upper(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// SafeASCII replaces every non printable byte with a dot.
func SafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}

// BigEndian interprets data[offset:offset+width] as an unsigned big endian integer.
// Width is limited to 8 bytes.
func BigEndian(data []byte, offset, width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("width %d out of range (1-8)", width)
	}
	if offset < 0 || offset+width > len(data) {
		return 0, fmt.Errorf("window [%d:%d] exceeds %d bytes of data", offset, offset+width, len(data))
	}

	var v uint64
	for _, b := range data[offset : offset+width] {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
