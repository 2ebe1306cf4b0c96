package util

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SecureFilename reduces a client-supplied file name to a safe base name.
// Directory parts and control characters are dropped, whitespace runs
// become underscores and anything outside [A-Za-z0-9_.-] is removed.
// Leading dots and underscores are stripped so the result is never hidden.
// It may return "".
func SecureFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}
