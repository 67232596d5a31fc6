package util

import (
	"strings"
)

// DisplayName strips any client-supplied directory components from an uploaded
// file name. Some browsers send a full path.
func DisplayName(name string) string {
	s := strings.TrimSpace(name)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// FileExtension returns the lowercase extension of name without the dot, or ""
// when name has no extension.
func FileExtension(name string) string {
	base := DisplayName(name)
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}
