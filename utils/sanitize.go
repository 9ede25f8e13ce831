package utils

import "strings"

// SanitizeFilename strips path separators and control characters so a
// client-supplied name is safe to store and to echo back.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	// drop any directory component, whichever separator the client used
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = strings.TrimSpace(b.String())
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
