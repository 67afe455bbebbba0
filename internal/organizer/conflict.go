package organizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"avshelf/internal/fileutil"
	"avshelf/internal/textutil"
)

type conflictOutcome int

const (
	noConflict conflictOutcome = iota
	skipped
	overwriteAccepted
	renamed
)

func (c conflictOutcome) String() string {
	switch c {
	case noConflict:
		return "no_conflict"
	case skipped:
		return "skipped"
	case overwriteAccepted:
		return "overwrite_accepted"
	case renamed:
		return "renamed"
	default:
		return fmt.Sprintf("conflictOutcome(%d)", int(c))
	}
}

// maxRenameAttempts bounds the numeric suffix search before falling back to a
// timestamp suffix.
var maxRenameAttempts = 9999

// resolveConflict decides where a file bound for path should land. skipped
// returns an empty path.
func (o *Organizer) resolveConflict(path string) (string, conflictOutcome) {
	if !fileutil.Exists(path) {
		return path, noConflict
	}
	switch o.opts.Conflict {
	case ConflictSkip:
		return "", skipped
	case ConflictOverwrite:
		return path, overwriteAccepted
	default:
		return o.uniquePath(path), renamed
	}
}

// uniquePath finds the first free sibling stem_N.ext, N in 1..9999, and falls
// back to stem_YYYYMMDD_HHMMSS.ext.
func (o *Organizer) uniquePath(path string) string {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := filepath.Join(dir, o.suffixedName(stem, fmt.Sprintf("_%d", n), ext))
		if !fileutil.Exists(candidate) {
			return candidate
		}
	}
	stamp := o.now().Format("20060102_150405")
	return filepath.Join(dir, o.suffixedName(stem, "_"+stamp, ext))
}

// suffixedName appends suffix to stem, shortening stem when the result would
// exceed the component limit.
func (o *Organizer) suffixedName(stem, suffix, ext string) string {
	limit := o.opts.MaxFilenameLength
	budget := limit - utf8.RuneCountInString(suffix) - utf8.RuneCountInString(ext)
	if limit > 0 && utf8.RuneCountInString(stem) > budget && budget > 0 {
		stem = textutil.TruncateComponent(stem, budget, false)
	}
	return stem + suffix + ext
}
