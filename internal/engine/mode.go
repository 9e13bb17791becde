package engine

import (
	"strings"
)

// Mode selects how call sites are evaluated.
type Mode int

const (
	// ModeDynamic interprets call sites and compiles hot services in the background.
	ModeDynamic Mode = iota

	// ModeRuntime always interprets call sites.
	ModeRuntime

	// ModeCompiled compiles every call site when it is first realized.
	ModeCompiled
)

func (m Mode) String() string {
	switch m {
	case ModeDynamic:
		return "dynamic"
	case ModeRuntime:
		return "runtime"
	case ModeCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m < ModeDynamic || m > ModeCompiled {
		return nil, ModeError{Value: int(m)}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "dynamic", "":
		*m = ModeDynamic
	case "runtime":
		*m = ModeRuntime
	case "compiled":
		*m = ModeCompiled
	default:
		return ModeError{Value: string(text)}
	}
	return nil
}
