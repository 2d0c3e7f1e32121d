package iso7816

import (
	"fmt"
)

// Status words carrying dynamic information:
//
//  1. '61XX': process completed, XX bytes available through GET RESPONSE.
//  2. '6CXX': wrong length, XX is the Le the card expects.
//  3. '91XX': DESFire ISO wrapping. XX is the native DESFire status byte
//     (00 OK, AF additional frame, A0 application not found, ...).

// StatusWord represents the two-byte status response (SW1-SW2) returned by the smart card.
type StatusWord uint16

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// IsSuccess returns true if the command was processed successfully (9000) or
// if data is available (61XX).
func (sw StatusWord) IsSuccess() bool {
	return sw == SW_NO_ERROR || sw.SW1() == 0x61
}

// IsDESFire reports whether SW1 is the DESFire wrapping marker (91XX).
func (sw StatusWord) IsDESFire() bool {
	return sw.SW1() == 0x91
}

func (sw StatusWord) String() string {
	if name, ok := swNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	sw1 := sw.SW1()
	sw2 := sw.SW2()

	switch sw1 {
	case 0x61:
		return fmt.Sprintf("Process completed, %d bytes available", sw2)
	case 0x6C:
		return fmt.Sprintf("Wrong length, correct Le is %d", sw2)
	case 0x91:
		return fmt.Sprintf("[%04X] DESFire status 0x%02X", uint16(sw), sw2)
	}

	if name, ok := swNames[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), name)
	}
	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Status Word codes defined in ISO/IEC 7816-4, plus the two DESFire wrapped
// statuses that drive frame chaining.
const (
	SW_NO_ERROR StatusWord = 0x9000

	SW_DESFIRE_OK               StatusWord = 0x9100
	SW_DESFIRE_ADDITIONAL_FRAME StatusWord = 0x91AF

	SW_WARN_EOF_REACHED StatusWord = 0x6282

	SW_ERR_WRONG_LENGTH            StatusWord = 0x6700
	SW_ERR_CMD_NOT_ALLOWED_NO_INFO StatusWord = 0x6900
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_FUNC_NOT_SUPPORTED      StatusWord = 0x6A81
	SW_ERR_FILE_NOT_FOUND          StatusWord = 0x6A82
	SW_ERR_RECORD_NOT_FOUND        StatusWord = 0x6A83
	SW_ERR_INCORRECT_PARAMS_P1P2   StatusWord = 0x6A86
	SW_ERR_WRONG_P1P2              StatusWord = 0x6B00
	SW_ERR_INS_INVALID             StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED       StatusWord = 0x6E00
	SW_ERR_UNKNOWN                 StatusWord = 0x6F00
)

var swNames = map[StatusWord]string{
	SW_NO_ERROR:                    "SW_NO_ERROR",
	SW_DESFIRE_OK:                  "SW_DESFIRE_OK",
	SW_DESFIRE_ADDITIONAL_FRAME:    "SW_DESFIRE_ADDITIONAL_FRAME",
	SW_WARN_EOF_REACHED:            "SW_WARN_EOF_REACHED",
	SW_ERR_WRONG_LENGTH:            "SW_ERR_WRONG_LENGTH",
	SW_ERR_CMD_NOT_ALLOWED_NO_INFO: "SW_ERR_CMD_NOT_ALLOWED_NO_INFO",
	SW_ERR_SECURITY_STATUS_NOT_SAT: "SW_ERR_SECURITY_STATUS_NOT_SAT",
	SW_ERR_FUNC_NOT_SUPPORTED:      "SW_ERR_FUNC_NOT_SUPPORTED",
	SW_ERR_FILE_NOT_FOUND:          "SW_ERR_FILE_NOT_FOUND",
	SW_ERR_RECORD_NOT_FOUND:        "SW_ERR_RECORD_NOT_FOUND",
	SW_ERR_INCORRECT_PARAMS_P1P2:   "SW_ERR_INCORRECT_PARAMS_P1P2",
	SW_ERR_WRONG_P1P2:              "SW_ERR_WRONG_P1P2",
	SW_ERR_INS_INVALID:             "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:       "SW_ERR_CLA_NOT_SUPPORTED",
	SW_ERR_UNKNOWN:                 "SW_ERR_UNKNOWN",
}
