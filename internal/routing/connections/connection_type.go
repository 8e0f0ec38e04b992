package connections

import (
	"fmt"
	"math/bits"
	"strings"
)

// ConnectionType is a bit-set of the signal types a connection carries.
//
// Compound values (e.g. Audio|Video) describe ganged signals. Storage and
// lookups that need one signal at a time decompose with Flags().
type ConnectionType uint8

// Signal flags.
const (
	Audio ConnectionType = 1 << iota
	Video
	Usb
)

// None is the empty connection type. It is never valid on a Connection.
const None ConnectionType = 0

// AllTypes is every known flag combined.
const AllTypes = Audio | Video | Usb

var flagNames = []struct {
	flag ConnectionType
	name string
}{
	{Audio, "Audio"},
	{Video, "Video"},
	{Usb, "Usb"},
}

// Flags decomposes t into its single flags, in ascending bit order.
// Unknown bits are dropped.
func (t ConnectionType) Flags() []ConnectionType {
	flags := make([]ConnectionType, 0, bits.OnesCount8(uint8(t&AllTypes)))
	for _, f := range flagNames {
		if t&f.flag != 0 {
			flags = append(flags, f.flag)
		}
	}
	return flags
}

// CombineFlags recombines single flags into one value.
// CombineFlags(t.Flags()...) == t for every valid t.
func CombineFlags(flags ...ConnectionType) ConnectionType {
	var t ConnectionType
	for _, f := range flags {
		t |= f
	}
	return t
}

// Has reports whether every flag in other is also set in t.
func (t ConnectionType) Has(other ConnectionType) bool {
	return other != None && t&other == other
}

// Intersect returns the flags set in both t and other.
func (t ConnectionType) Intersect(other ConnectionType) ConnectionType {
	return t & other
}

// HasMultipleFlags reports whether more than one flag is set.
func (t ConnectionType) HasMultipleFlags() bool {
	return bits.OnesCount8(uint8(t&AllTypes)) > 1
}

// IsSingleFlag reports whether exactly one known flag is set.
func (t ConnectionType) IsSingleFlag() bool {
	return t&AllTypes == t && bits.OnesCount8(uint8(t)) == 1
}

// IsValid reports whether t is non-empty and contains only known flags.
func (t ConnectionType) IsValid() bool {
	return t != None && t&AllTypes == t
}

// RequireSingleFlag returns ErrInvalidArgument unless t is exactly one flag.
func (t ConnectionType) RequireSingleFlag() error {
	if !t.IsSingleFlag() {
		return fmt.Errorf("%w: connection type %q is not a single flag", ErrInvalidArgument, t)
	}
	return nil
}

// String renders the flag-list form, e.g. "Audio, Video".
func (t ConnectionType) String() string {
	if t == None {
		return "None"
	}
	names := make([]string, 0, len(flagNames))
	for _, f := range flagNames {
		if t&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, ", ")
}

// ParseConnectionType parses a flag list such as "Audio, Video" or
// "audio|video". Names are case-insensitive. An empty string or "None" is
// rejected since a connection always carries at least one signal.
func ParseConnectionType(s string) (ConnectionType, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|'
	})

	var t ConnectionType
	for _, field := range fields {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		flag, ok := lookupFlag(name)
		if !ok {
			return None, fmt.Errorf("%w: unknown flag %q", ErrInvalidConnectionType, name)
		}
		t |= flag
	}

	if t == None {
		return None, fmt.Errorf("%w: %q has no flags", ErrInvalidConnectionType, s)
	}
	return t, nil
}

func lookupFlag(name string) (ConnectionType, bool) {
	for _, f := range flagNames {
		if strings.EqualFold(f.name, name) {
			return f.flag, true
		}
	}
	return None, false
}

// MarshalText implements encoding.TextMarshaler.
func (t ConnectionType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConnectionType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ConnectionType) UnmarshalText(text []byte) error {
	parsed, err := ParseConnectionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
