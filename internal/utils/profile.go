package utils

import "strings"

const maxProfileNameLen = 128

// IsValidProfileName reports whether name may select a profile. Names come
// from CBSH_PROFILE, --profile and the config file, and end up in log lines
// and in the names of keyring entries, so only [A-Za-z0-9._-] is allowed.
func IsValidProfileName(name string) bool {
	if name == "" || len(name) > maxProfileNameLen {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '-', r == '_', r == '.':
			return false
		}
		return true
	})
}
