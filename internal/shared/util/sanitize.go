package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameBytes = 200

// ErrInvalidFileName is returned for names that cannot be used in an object key.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a client-supplied file name into a single key segment:
// separators become underscores, control characters are dropped and traversal
// patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > maxFileNameBytes {
		s = strings.ToValidUTF8(s[:maxFileNameBytes], "")
	}
	return s, nil
}
