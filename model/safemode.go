package model

import (
	"fmt"
	"strings"
)

// SafeMode is an ordered permission level. Each step up removes access:
// Safe jails file reads to the base directory, Server additionally hides
// filesystem details, Secure disables includes altogether.
type SafeMode int

const (
	SafeModeUnsafe SafeMode = 0
	SafeModeSafe   SafeMode = 1
	SafeModeServer SafeMode = 10
	SafeModeSecure SafeMode = 20
)

// String returns the lowercase name of the safe mode.
func (m SafeMode) String() string {
	switch m {
	case SafeModeUnsafe:
		return "unsafe"
	case SafeModeSafe:
		return "safe"
	case SafeModeServer:
		return "server"
	case SafeModeSecure:
		return "secure"
	default:
		return fmt.Sprintf("SafeMode(%d)", int(m))
	}
}

// ParseSafeMode accepts a safe mode name (case-insensitive) or its numeric level.
func ParseSafeMode(s string) (SafeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unsafe", "0":
		return SafeModeUnsafe, nil
	case "safe", "1":
		return SafeModeSafe, nil
	case "server", "10":
		return SafeModeServer, nil
	case "secure", "20", "":
		return SafeModeSecure, nil
	}
	return SafeModeSecure, fmt.Errorf("unknown safe mode %q", s)
}

// CanIncludeFiles reports whether include directives may read anything.
func (m SafeMode) CanIncludeFiles() bool {
	return m < SafeModeSecure
}

// JailsPaths reports whether resolved paths must stay inside the base directory.
func (m SafeMode) JailsPaths() bool {
	return m >= SafeModeSafe
}
