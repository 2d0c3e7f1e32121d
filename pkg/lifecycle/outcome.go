package lifecycle

import (
	"fmt"
	"strings"

	"github.com/gregLibert/desfire-monitor/pkg/desfire"
	"github.com/gregLibert/desfire-monitor/pkg/hexfmt"
)

// Outcome is what one insertion produced: the application directory, and
// the file content when the target application was present. Err is set when
// the sequence failed; the fields gathered before the failure are kept.
type Outcome struct {
	Reader       string
	ATR          []byte
	Applications desfire.AIDSet
	Selected     desfire.AID
	HasSelected  bool
	FileNumber   byte
	File         []byte
	Err          error
}

// Succeeded reports whether the whole sequence completed.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Describe generates an ASCII report of the outcome.
func (o Outcome) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== DESFIRE CARD REPORT ===\n")
	if o.Reader != "" {
		sb.WriteString(fmt.Sprintf("[+] Reader:       %s\n", o.Reader))
	}
	if len(o.ATR) > 0 {
		sb.WriteString(fmt.Sprintf("[+] ATR:          %s\n", hexfmt.Upper(o.ATR)))
	}

	if o.Applications != nil {
		sb.WriteString(fmt.Sprintf("[+] Applications: %d found\n", len(o.Applications)))
		for _, aid := range o.Applications.Sorted() {
			sb.WriteString(fmt.Sprintf("    - %s\n", aid))
		}
	}

	if o.HasSelected {
		sb.WriteString(fmt.Sprintf("[+] Selected:     %s\n", o.Selected))
		if o.File != nil {
			sb.WriteString(fmt.Sprintf("\n[=] FILE %02X:\n", o.FileNumber))
			if len(o.File) > 0 {
				sb.WriteString(fmt.Sprintf("    + Length: %d bytes\n", len(o.File)))
				sb.WriteString(fmt.Sprintf("    + Dump:   %X\n", o.File))
				sb.WriteString(fmt.Sprintf("    + ASCII:  %q\n", hexfmt.SafeASCII(o.File)))
			} else {
				sb.WriteString("    - Empty file.\n")
			}
		}
	} else if o.Applications != nil && o.Err == nil {
		sb.WriteString("[-] Target application not on card.\n")
	}

	if o.Err != nil {
		sb.WriteString(fmt.Sprintf("\n[!] FAILED: %v\n", o.Err))
	}

	return strings.TrimRight(sb.String(), "\n")
}
