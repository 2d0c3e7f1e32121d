package iso7816

import (
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/bits"
)

// Instruction byte (INS) according to ISO/IEC 7816-4.
//
// In the interindustry class, values whose upper nibble is '6' or '9' are
// invalid because they collide with SW1 procedure bytes. Proprietary classes
// define their own instruction space: DESFire reuses its native command codes
// (0x6A GetApplicationIDs, 0x5A SelectApplication, 0xBD ReadData, 0xAF
// AdditionalFrame) as INS under CLA 0x90.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Interindustry instructions used by this toolkit.
const (
	INS_SELECT          InsCode = 0xA4
	INS_READ_BINARY     InsCode = 0xB0
	INS_READ_BINARY_BER InsCode = 0xB1
	INS_READ_RECORD     InsCode = 0xB2
	INS_GET_RESPONSE    InsCode = 0xC0
	INS_GET_DATA        InsCode = 0xCA
	INS_UPDATE_BINARY   InsCode = 0xD6
)

var insNames = map[InsCode]string{
	INS_SELECT:          "INS_SELECT",
	INS_READ_BINARY:     "INS_READ_BINARY",
	INS_READ_BINARY_BER: "INS_READ_BINARY_BER",
	INS_READ_RECORD:     "INS_READ_RECORD",
	INS_GET_RESPONSE:    "INS_GET_RESPONSE",
	INS_GET_DATA:        "INS_GET_DATA",
	INS_UPDATE_BINARY:   "INS_UPDATE_BINARY",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// Instruction represents the parsed Instruction byte (INS).
type Instruction struct {
	Raw           InsCode
	IsBERTLV      bool
	IsProprietary bool
}

// NewInstruction creates an interindustry Instruction.
// It rejects '6X' and '9X' values as they are invalid according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := byte(ins) & 0xF0
	if highNibble == 0x60 || highNibble == 0x90 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// NewProprietaryInstruction wraps an instruction byte defined by a proprietary
// class. No interindustry validation is applied.
func NewProprietaryInstruction(ins InsCode) Instruction {
	return Instruction{Raw: ins, IsProprietary: true}
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	if i.IsProprietary {
		return fmt.Sprintf("INS: 0x%02X | Command: Proprietary", byte(i.Raw))
	}

	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw, format)
}
