package desfire

import (
	"bytes"
	"errors"
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
)

func TestParseAID(t *testing.T) {
	tests := []struct {
		in      string
		want    AID
		wantErr bool
	}{
		{"7080F4", 0x7080F4, false},
		{"0x7080f4", 0x7080F4, false},
		{"0X007080F4", 0x7080F4, false},
		{"  000001 ", 0x000001, false},
		{"", 0, true},
		{"0x", 0, true},
		{"1000000", 0, true},
		{"ZZZZZZ", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAID(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAID_Encoding(t *testing.T) {
	aid := AID(0x7080F4)

	if got := aid.Bytes(); !bytes.Equal(got, hexfmt.Hex("7080F4")) {
		t.Errorf("Bytes() = %X", got)
	}
	if got := aid.String(); got != "7080F4" {
		t.Errorf("String() = %q", got)
	}

	back, err := NewAID(aid.Bytes())
	if err != nil || back != aid {
		t.Errorf("NewAID(Bytes()) = %s, %v", back, err)
	}
	if _, err := NewAID([]byte{1, 2}); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("NewAID(short) error = %v", err)
	}
}

func TestAID_FlagValue(t *testing.T) {
	var aid AID
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&aid, "aid", "application")

	if err := fs.Parse([]string{"-aid", "0x112233"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if aid != 0x112233 {
		t.Errorf("aid = %s, want 112233", aid)
	}
}

func TestAIDSet(t *testing.T) {
	set, err := ParseAIDList(hexfmt.Hex("445566 112233 7080F4 112233"))
	if err != nil {
		t.Fatalf("ParseAIDList() error: %v", err)
	}

	if diff := cmp.Diff([]AID{0x112233, 0x445566, 0x7080F4}, set.Sorted()); diff != "" {
		t.Errorf("Sorted() mismatch (-want +got):\n%s", diff)
	}
	if !set.Contains(0x7080F4) || set.Contains(0x000000) {
		t.Errorf("Contains() is wrong for %s", set)
	}
	if got := set.String(); got != "[112233 445566 7080F4]" {
		t.Errorf("String() = %q", got)
	}

	empty, err := ParseAIDList(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseAIDList(nil) = %v, %v", empty, err)
	}
}
