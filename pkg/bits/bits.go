// Package bits holds the small bit and byte packing helpers shared by the
// ISO 7816 and DESFire layers.
package bits

// MaxUint24 is the largest value a 3-byte field can carry.
const MaxUint24 = 1<<24 - 1

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// Set returns b with bit n turned on.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// PutUint24LE writes the low 24 bits of v into b[0:3], least significant byte first.
// It panics if b is shorter than 3 bytes, like encoding/binary does.
func PutUint24LE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// Uint24LE reads a 3-byte little endian value.
func Uint24LE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// PutUint24BE writes the low 24 bits of v into b[0:3], most significant byte first.
func PutUint24BE(b []byte, v uint32) {
	_ = b[2]
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

// Uint24BE reads a 3-byte big endian value.
func Uint24BE(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
