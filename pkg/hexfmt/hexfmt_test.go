package hexfmt

import (
	"bytes"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		want      []byte
		wantPanic bool
	}{
		{
			name:   "Simple Join",
			inputs: []string{"90", "6A"},
			want:   []byte{0x90, 0x6A},
		},
		{
			name:   "With Spaces",
			inputs: []string{"90 5A", " 00 00 "},
			want:   []byte{0x90, 0x5A, 0x00, 0x00},
		},
		{
			name:   "Mixed Case",
			inputs: []string{"f4", "80", "70"},
			want:   []byte{0xF4, 0x80, 0x70},
		},
		{
			name:      "Invalid Hex",
			inputs:    []string{"ZZ"},
			wantPanic: true,
		},
		{
			name:      "Odd Length",
			inputs:    []string{"AF0"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("Hex() panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()

			got := Hex(tt.inputs...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Hex() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestSafeASCII(t *testing.T) {
	got := SafeASCII([]byte{'K', 'S', 0x00, 0x7F, '!'})
	if got != "KS..!" {
		t.Errorf("SafeASCII() = %q, want %q", got, "KS..!")
	}
}

func TestBigEndian(t *testing.T) {
	data := Hex("00 01 02 03 04 00 00 00 00 00 00 30 39")

	tests := []struct {
		name    string
		offset  int
		width   int
		want    uint64
		wantErr bool
	}{
		{"Eight byte window", 5, 8, 12345, false},
		{"Single byte", 2, 1, 2, false},
		{"Two bytes", 3, 2, 0x0304, false},
		{"Window past end", 10, 8, 0, true},
		{"Width too large", 0, 9, 0, true},
		{"Zero width", 0, 0, 0, true},
		{"Negative offset", -1, 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BigEndian(data, tt.offset, tt.width)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BigEndian() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BigEndian() = %d, want %d", got, tt.want)
			}
		})
	}
}
