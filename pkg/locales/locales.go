package locales

import "strings"

// Supported UI locales. Every user-facing route is prefixed with one of these.
var Supported = []string{"uz", "en", "ru"}

const Default = "uz"

const CtxLocaleKey = "locale"

func IsSupported(locale string) bool {
	for _, l := range Supported {
		if l == locale {
			return true
		}
	}
	return false
}

// FromPath extracts the locale from the first path segment. A segment that is
// not a supported locale is not treated as one (asset and API paths pass
// through untouched).
func FromPath(path string) (string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(trimmed, "/")
	if IsSupported(segment) {
		return segment, true
	}
	return "", false
}
