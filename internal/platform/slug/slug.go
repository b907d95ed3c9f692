package slug

import (
	"regexp"
	"strings"
)

var unsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Make turns free text (subject names, note titles) into a filename slug.
func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = unsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "note"
	}
	if len(s) > 64 {
		s = strings.Trim(s[:64], "-")
	}
	return s
}
