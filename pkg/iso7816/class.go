package iso7816

import (
	"fmt"

	"github.com/gregLibert/desfire-monitor/pkg/bits"
)

// Class Byte (CLA) according to ISO/IEC 7816-4.
//
// Bit 8: Proprietary (1) or Interindustry (0).
// Bit 7: Type of Interindustry (0=First, 1=Further).
// Bit 5: Command Chaining (0=Last/Only, 1=More follow).
//
// First Interindustry (00xx xxxx): SM on bits 4-3, logical channel on bits 2-1.
// Further Interindustry (01xx xxxx): SM on bit 6, channel minus 4 on bits 4-1.
//
// DESFire cards accept their native command set wrapped in the proprietary
// class 0x90 (see ClassDESFire). Proprietary bytes are carried as-is.

// SecureMessaging defines the security level applied to the APDU.
type SecureMessaging int

const (
	SMNone         SecureMessaging = 0
	SMProprietary  SecureMessaging = 1
	SMHeaderNoProc SecureMessaging = 2
	SMHeaderAuth   SecureMessaging = 3
)

// ClassDESFire is the CLA byte used for ISO wrapped DESFire native commands.
const ClassDESFire byte = 0x90

// Class represents the parsed ISO 7816-4 Class byte (CLA).
type Class struct {
	Raw             byte
	IsProprietary   bool
	IsChained       bool
	SecureMessaging SecureMessaging
	Channel         uint8 // Logical channel number (0-19)
}

// NewClass creates a Class object by decoding a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}

	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)

	if !bits.IsSet(cla, 7) {
		c.SecureMessaging = SecureMessaging(bits.GetRange(cla, 4, 3))
		c.Channel = bits.GetRange(cla, 2, 1)
	} else {
		if bits.IsSet(cla, 6) {
			c.SecureMessaging = SMHeaderNoProc
		}
		c.Channel = bits.GetRange(cla, 4, 1) + 4
	}

	return c, nil
}

// Encode converts the Class object back to its byte representation.
func (c *Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	var res byte
	if c.IsChained {
		res = bits.Set(res, 5)
	}

	if c.Channel <= 3 {
		res |= byte(c.SecureMessaging) << 2
		res |= c.Channel
		return res, nil
	}

	res = bits.Set(res, 7)
	if c.SecureMessaging != SMNone {
		res = bits.Set(res, 6)
	}
	res |= c.Channel - 4

	return res, nil
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	if c.IsProprietary {
		if c.Raw == ClassDESFire {
			return fmt.Sprintf("Class: Proprietary (0x%02X, DESFire native wrapping)", c.Raw)
		}
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	rangeName := "First Interindustry (Ch 0-3)"
	if c.Channel >= 4 {
		rangeName = "Further Interindustry (Ch 4-19)"
	}

	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf("Range: %s\nChaining: %s\nSecure Messaging: %d\nLogical Channel: %d",
		rangeName, chaining, c.SecureMessaging, c.Channel)
}
