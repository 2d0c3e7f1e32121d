package desfire

import "fmt"

// Command is a DESFire native command code.
type Command byte

const (
	CmdGetApplicationIDs Command = 0x6A
	CmdSelectApplication Command = 0x5A
	CmdReadData          Command = 0xBD
	CmdAdditionalFrame   Command = 0xAF
)

func (c Command) String() string {
	switch c {
	case CmdGetApplicationIDs:
		return "GetApplicationIDs"
	case CmdSelectApplication:
		return "SelectApplication"
	case CmdReadData:
		return "ReadData"
	case CmdAdditionalFrame:
		return "AdditionalFrame"
	default:
		return fmt.Sprintf("Command(0x%02X)", byte(c))
	}
}
