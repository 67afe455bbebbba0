package scan

import (
	"path/filepath"
	"regexp"
	"strings"
)

type codePattern struct {
	re     *regexp.Regexp
	format func(m []string) string
}

// codePatterns are tried in order; the first match wins. FC2 and the
// numeric-prefix forms come before the generic LETTERS-DIGITS form, which
// would otherwise match inside them.
var codePatterns = []codePattern{
	{
		re:     regexp.MustCompile(`(?i)\bFC2[\s\-]*(?:PPV)?[\s\-]*(\d{5,8})`),
		format: func(m []string) string { return "FC2-PPV-" + m[1] },
	},
	{
		re:     regexp.MustCompile(`\b(\d{6})[\s\-](\d{3})\b`),
		format: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(\d{4})[\s\-]?PPV[\s\-]?(\d+)`),
		format: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(\d{1,4}[A-Z]{2,6})[\s\-]?(\d{3,6})\b`),
		format: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)\b([A-Z]{2,6})[\s\-]?(\d{3,5})`),
		format: func(m []string) string { return m[1] + "-" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)\b(n)\s?(\d{4})\b`),
		format: func(m []string) string { return m[1] + m[2] },
	},
}

var (
	leadingTags  = regexp.MustCompile(`^(?:\[[^\]]*\]|\([^)]*\)|【[^】]*】)\s*`)
	trailingTags = regexp.MustCompile(`(?i)\s*(?:\[[^\]]*\]|\([^)]*\)|【[^】]*】|_\d+p|_HD|_FHD|_4K)$`)
	separators   = regexp.MustCompile(`[_.]`)
)

// DetectCode extracts an upper-case release code such as "ABC-123" or
// "FC2-PPV-1234567" from filename. It returns "" when nothing matches.
func DetectCode(filename string) string {
	name := cleanName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	for _, p := range codePatterns {
		if m := p.re.FindStringSubmatch(name); m != nil {
			return strings.ToUpper(p.format(m))
		}
	}
	return ""
}

// cleanName drops bracketed site tags and quality suffixes and turns
// underscores and dots into spaces.
func cleanName(name string) string {
	for {
		trimmed := leadingTags.ReplaceAllString(name, "")
		trimmed = trailingTags.ReplaceAllString(trimmed, "")
		if trimmed == name {
			break
		}
		name = trimmed
	}
	name = separators.ReplaceAllString(name, " ")
	return strings.Join(strings.Fields(name), " ")
}
