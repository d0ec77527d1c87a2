package util

import (
	"strings"
	"unicode"
)

// SanitizeFilename keeps letters, digits, space, '-', '_' and '.', then
// trims trailing whitespace.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// AttachmentDisposition builds the Content-Disposition value for a download.
func AttachmentDisposition(filename, ext string) string {
	return `attachment; filename="` + filename + "." + ext + `"`
}
