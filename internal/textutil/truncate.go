package textutil

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TruncateComponent shortens name to at most maxLen runes. When keepExt is
// set the extension survives untouched and only the stem is cut. Trailing
// dots and spaces exposed by the cut are removed. An extension that alone
// reaches maxLen cannot be kept and the whole name is cut instead.
func TruncateComponent(name string, maxLen int, keepExt bool) string {
	if maxLen <= 0 || utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	if !keepExt {
		return trimCut(firstRunes(name, maxLen), name)
	}
	ext := filepath.Ext(name)
	extLen := utf8.RuneCountInString(ext)
	if ext == "" || extLen >= maxLen {
		return trimCut(firstRunes(name, maxLen), name)
	}
	stem := strings.TrimSuffix(name, ext)
	cut := trimCut(firstRunes(stem, maxLen-extLen), stem)
	return cut + ext
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func trimCut(cut, original string) string {
	trimmed := strings.TrimRight(cut, ". ")
	if trimmed == "" {
		return cut
	}
	return trimmed
}
