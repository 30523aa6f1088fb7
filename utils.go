package stowgate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidPath reports whether p can be stored as a catalog key. Populate
// skips files whose relative path fails it. A key is a relative UTF-8 path
// with no trailing slash, no empty or "." segments and no "..", free of
// backslashes, '?', '#', '~' and control or non-space whitespace runes.
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if p == "/." || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || (r != ' ' && unicode.IsSpace(r)) {
			return false
		}
	}

	return true
}
