package desfire

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gregLibert/desfire-monitor/pkg/bits"
)

// AIDLength is the encoded size of an application identifier.
const AIDLength = 3

// AID is a 24-bit DESFire application identifier.
// On the wire it is packed as three big endian bytes.
type AID uint32

// NewAID decodes a 3-byte identifier.
func NewAID(b []byte) (AID, error) {
	if len(b) != AIDLength {
		return 0, fmt.Errorf("%w: AID must be %d bytes, got %d", ErrMalformedResponse, AIDLength, len(b))
	}
	return AID(bits.Uint24BE(b)), nil
}

// ParseAID parses "7080F4", "0x7080f4" or "0x007080F4".
func ParseAID(s string) (AID, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if clean == "" {
		return 0, fmt.Errorf("empty AID")
	}

	v, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid AID %q: %w", s, err)
	}
	if v > bits.MaxUint24 {
		return 0, fmt.Errorf("invalid AID %q: exceeds %d bytes", s, AIDLength)
	}
	return AID(v), nil
}

// Bytes returns the wire encoding.
func (a AID) Bytes() []byte {
	b := make([]byte, AIDLength)
	bits.PutUint24BE(b, uint32(a))
	return b
}

func (a AID) String() string {
	return fmt.Sprintf("%06X", uint32(a))
}

// Set implements flag.Value.
func (a *AID) Set(s string) error {
	v, err := ParseAID(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// AIDSet is an unordered set of application identifiers. The card does not
// guarantee any order in its directory listing.
type AIDSet map[AID]struct{}

// NewAIDSet builds a set from the given identifiers.
func NewAIDSet(aids ...AID) AIDSet {
	s := make(AIDSet, len(aids))
	for _, a := range aids {
		s[a] = struct{}{}
	}
	return s
}

// Contains reports whether aid is in the set.
func (s AIDSet) Contains(aid AID) bool {
	_, ok := s[aid]
	return ok
}

// Sorted returns the identifiers in ascending order, for display only.
func (s AIDSet) Sorted() []AID {
	out := make([]AID, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func (s AIDSet) String() string {
	parts := make([]string, 0, len(s))
	for _, a := range s.Sorted() {
		parts = append(parts, a.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseAIDList decodes a GetApplicationIDs payload.
// The length must be a multiple of AIDLength.
func ParseAIDList(payload []byte) (AIDSet, error) {
	if len(payload)%AIDLength != 0 {
		return nil, fmt.Errorf("%w: directory payload of %d bytes is not a multiple of %d",
			ErrMalformedResponse, len(payload), AIDLength)
	}

	set := make(AIDSet, len(payload)/AIDLength)
	for i := 0; i < len(payload); i += AIDLength {
		set[AID(bits.Uint24BE(payload[i:i+AIDLength]))] = struct{}{}
	}
	return set, nil
}
