package util

import (
	"path"
	"strings"
	"unicode"
)

const maxDisplayNameLen = 255

// DisplayName reduces a client-supplied file name to a safe display string:
// directory components and control characters are dropped and the result is
// capped in length. Empty input becomes "document".
func DisplayName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == "/" || s == ".." {
		return "document"
	}
	if len(s) > maxDisplayNameLen {
		runes := []rune(s)
		for len(string(runes)) > maxDisplayNameLen {
			runes = runes[:len(runes)-1]
		}
		s = string(runes)
	}
	return s
}
