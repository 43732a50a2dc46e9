package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxSanitizePasses = 4

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips all HTML from free text such as check-in notes and returns plain text.
// Entity-encoded markup is decoded and stripped as well; the policy is reapplied until the
// decoded text has nothing left to remove.
func SanitizeText(input string) string {
	s := input
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(sanitizer.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// still changing: keep the escaped form
	return strings.TrimSpace(sanitizer.Sanitize(s))
}
