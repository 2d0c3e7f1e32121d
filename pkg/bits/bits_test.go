package bits

import (
	"bytes"
	"testing"
)

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {5, 0x10}, {8, 0x80}, {0, 0x00},
		{9, 0x00}, //dumb value silently ignored
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	val := byte(0b10100101)
	if !IsSet(val, 8) {
		t.Error("Bit 8 should be set")
	}
	if IsSet(val, 7) {
		t.Error("Bit 7 should NOT be set")
	}
	if !IsSet(val, 1) {
		t.Error("Bit 1 should be set")
	}
}

func TestGetRange(t *testing.T) {
	tests := []struct {
		name     string
		input    byte
		high     uint
		low      uint
		expected byte
	}{
		{"Bits 4-3 of 0x0C", 0b0000_1100, 4, 3, 3},
		{"Bits 2-1 of 0x03", 0b0000_0011, 2, 1, 3},
		{"Bits 4-1 of 0x0F", 0b0000_1111, 4, 1, 15},
		{"Bits 8-7 of 0x40", 0b0100_0000, 8, 7, 1},
		{"Full Byte", 0xAA, 8, 1, 0xAA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := GetRange(tt.input, tt.high, tt.low); res != tt.expected {
				t.Errorf("GetRange(0x%02X, %d, %d) = %d; want %d", tt.input, tt.high, tt.low, res, tt.expected)
			}
		})
	}
}

func TestSet(t *testing.T) {
	var b byte = 0
	b = Set(b, 5)
	expected := byte(1 << 4)
	if b != expected {
		t.Errorf("Set(5) = 0b%08b; want 0b%08b", b, expected)
	}
}

func TestUint24(t *testing.T) {
	tests := []struct {
		name string
		v    uint32
		le   []byte
		be   []byte
	}{
		{"Zero", 0, []byte{0x00, 0x00, 0x00}, []byte{0x00, 0x00, 0x00}},
		{"AID 7080F4", 0x7080F4, []byte{0xF4, 0x80, 0x70}, []byte{0x70, 0x80, 0xF4}},
		{"Max", MaxUint24, []byte{0xFF, 0xFF, 0xFF}, []byte{0xFF, 0xFF, 0xFF}},
		{"High byte dropped", 0x01020304, []byte{0x04, 0x03, 0x02}, []byte{0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := make([]byte, 3)
			PutUint24LE(le, tt.v)
			if !bytes.Equal(le, tt.le) {
				t.Errorf("PutUint24LE(0x%X) = % X; want % X", tt.v, le, tt.le)
			}

			be := make([]byte, 3)
			PutUint24BE(be, tt.v)
			if !bytes.Equal(be, tt.be) {
				t.Errorf("PutUint24BE(0x%X) = % X; want % X", tt.v, be, tt.be)
			}

			want := tt.v & MaxUint24
			if got := Uint24LE(le); got != want {
				t.Errorf("Uint24LE(% X) = 0x%X; want 0x%X", le, got, want)
			}
			if got := Uint24BE(be); got != want {
				t.Errorf("Uint24BE(% X) = 0x%X; want 0x%X", be, got, want)
			}
		})
	}
}
