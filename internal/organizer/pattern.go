package organizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"avshelf/internal/media"
	"avshelf/internal/textutil"
)

// maxListedActresses caps the {actresses} variable.
const maxListedActresses = 3

var knownVariables = map[string]struct{}{
	"code": {}, "title": {}, "title_en": {}, "actress": {}, "actresses": {},
	"studio": {}, "series": {}, "year": {}, "month": {}, "day": {},
	"ext": {}, "original_name": {},
}

type segment struct {
	literal  string
	variable string
}

// pattern is a parsed naming template.
type pattern struct {
	raw      string
	segments []segment
}

// parsePattern compiles a template. {name} is a placeholder, {{ and }} are
// literal braces. Unknown names and unbalanced braces are errors.
func parsePattern(raw string) (*pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("naming pattern is empty")
	}
	p := &pattern{raw: raw}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.segments = append(p.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			if i+1 < len(raw) && raw[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at offset %d in %q", i, raw)
			}
			name := raw[i+1 : i+1+end]
			if _, ok := knownVariables[name]; !ok {
				return nil, fmt.Errorf("unknown placeholder {%s} in %q", name, raw)
			}
			flush()
			p.segments = append(p.segments, segment{variable: name})
			i += end + 1
		case '}':
			if i+1 < len(raw) && raw[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d in %q", i, raw)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return p, nil
}

func (p *pattern) render(vars map[string]string) string {
	var b strings.Builder
	for _, seg := range p.segments {
		if seg.variable != "" {
			b.WriteString(vars[seg.variable])
			continue
		}
		b.WriteString(seg.literal)
	}
	return b.String()
}

// patternVariables derives the sanitized substitution set for one file.
func patternVariables(video media.VideoFile, meta *media.MovieMetadata) map[string]string {
	titleEn := meta.TitleEn
	if strings.TrimSpace(titleEn) == "" {
		titleEn = meta.Title
	}
	year, month, day := textutil.Unknown, textutil.Unknown, textutil.Unknown
	if meta.ReleaseDate != nil {
		year = fmt.Sprintf("%04d", meta.ReleaseDate.Year)
		month = fmt.Sprintf("%02d", int(meta.ReleaseDate.Month))
		day = fmt.Sprintf("%02d", meta.ReleaseDate.Day)
	}
	return map[string]string{
		"code":          textutil.Sanitize(meta.Code),
		"title":         textutil.Sanitize(meta.Title),
		"title_en":      textutil.Sanitize(titleEn),
		"actress":       textutil.Sanitize(meta.PrimaryActress()),
		"actresses":     textutil.Sanitize(actressList(meta.Actresses)),
		"studio":        textutil.Sanitize(meta.Studio),
		"series":        textutil.SanitizeOptional(meta.Series),
		"year":          year,
		"month":         month,
		"day":           day,
		"ext":           textutil.SanitizeOptional(strings.TrimPrefix(video.Extension, ".")),
		"original_name": textutil.Sanitize(video.Stem()),
	}
}

func actressList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	if len(names) <= maxListedActresses {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:maxListedActresses], ", "), len(names)-maxListedActresses)
}

// resolveRelative renders p and bounds every component. Empty components
// collapse; the result must stay inside the target root, and the file
// extension must fit within maxLen with room for at least one stem rune.
func resolveRelative(p *pattern, vars map[string]string, maxLen int) (string, error) {
	rendered := filepath.ToSlash(p.render(vars))
	if strings.HasPrefix(rendered, "/") {
		return "", fmt.Errorf("pattern %q resolves to an absolute path", p.raw)
	}
	raw := strings.Split(rendered, "/")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			return "", fmt.Errorf("pattern %q escapes the target directory", p.raw)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("pattern %q resolves to an empty path", p.raw)
	}
	last := len(parts) - 1
	if ext := filepath.Ext(parts[last]); maxLen > 0 && utf8.RuneCountInString(ext) >= maxLen {
		return "", fmt.Errorf("extension %q leaves no room for a name within %d characters", ext, maxLen)
	}
	for i, part := range parts {
		parts[i] = textutil.TruncateComponent(part, maxLen, i == last)
	}
	return filepath.Join(parts...), nil
}
