package desfire

import "fmt"

// Status is the one byte status a DESFire card returns for every frame.
type Status byte

const (
	StatusOK                        Status = 0x00
	StatusNoChanges                 Status = 0x0C
	StatusOutOfEEPROM               Status = 0x0E
	StatusIllegalCommand            Status = 0x1C
	StatusIntegrityError            Status = 0x1E
	StatusNoSuchKey                 Status = 0x40
	StatusLengthError               Status = 0x7E
	StatusPermissionDenied          Status = 0x9D
	StatusParameterError            Status = 0x9E
	StatusApplicationNotFound       Status = 0xA0
	StatusApplicationIntegrityError Status = 0xA1
	StatusAuthenticationError       Status = 0xAE
	StatusAdditionalFrame           Status = 0xAF
	StatusBoundaryError             Status = 0xBE
	StatusPICCIntegrityError        Status = 0xC1
	StatusCommandAborted            Status = 0xCA
	StatusPICCDisabled              Status = 0xCD
	StatusCountError                Status = 0xCE
	StatusDuplicateError            Status = 0xDE
	StatusEEPROMError               Status = 0xEE
	StatusFileNotFound              Status = 0xF0
	StatusFileIntegrityError        Status = 0xF1
)

// IsTerminal reports whether no further frame follows this status.
func (s Status) IsTerminal() bool {
	return s != StatusAdditionalFrame
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "operation ok"
	case StatusNoChanges:
		return "no changes"
	case StatusOutOfEEPROM:
		return "out of EEPROM"
	case StatusIllegalCommand:
		return "illegal command"
	case StatusIntegrityError:
		return "integrity error"
	case StatusNoSuchKey:
		return "no such key"
	case StatusLengthError:
		return "length error"
	case StatusPermissionDenied:
		return "permission denied"
	case StatusParameterError:
		return "parameter error"
	case StatusApplicationNotFound:
		return "application not found"
	case StatusApplicationIntegrityError:
		return "application integrity error"
	case StatusAuthenticationError:
		return "authentication error"
	case StatusAdditionalFrame:
		return "additional frame"
	case StatusBoundaryError:
		return "boundary error"
	case StatusPICCIntegrityError:
		return "PICC integrity error"
	case StatusCommandAborted:
		return "command aborted"
	case StatusPICCDisabled:
		return "PICC disabled"
	case StatusCountError:
		return "count error"
	case StatusDuplicateError:
		return "duplicate error"
	case StatusEEPROMError:
		return "EEPROM error"
	case StatusFileNotFound:
		return "file not found"
	case StatusFileIntegrityError:
		return "file integrity error"
	default:
		return fmt.Sprintf("unknown status 0x%02X", byte(s))
	}
}
