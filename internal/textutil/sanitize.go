package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Unknown is the placeholder used when a component sanitizes to nothing.
const Unknown = "Unknown"

// pathComponentReplacer maps characters that are invalid in a path component
// on common filesystems to underscores.
var pathComponentReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize converts value into a single path component. Invalid characters and
// control runes become underscores, leading and trailing dots and spaces are
// stripped, and an empty result becomes "Unknown". Sanitize is idempotent.
func Sanitize(value string) string {
	value = norm.NFC.String(value)
	value = pathComponentReplacer.Replace(value)
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, value)
	value = strings.Trim(value, ". ")
	if value == "" {
		return Unknown
	}
	return value
}

// SanitizeOptional behaves like Sanitize but keeps empty input empty, for
// variables such as series where absence is a valid value.
func SanitizeOptional(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return Sanitize(value)
}
