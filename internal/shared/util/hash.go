package util

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var safeSegment = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// HashKey returns a hex SHA-256 digest of s.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SafeKeySegment returns s unchanged when it can be used as a single object-key
// segment, otherwise its hash.
func SafeKeySegment(s string) string {
	if IsSafeKeySegment(s) {
		return s
	}
	return HashKey(s)
}

// IsSafeKeySegment reports whether s can be used as one object-key segment
// as is: 1 to 128 letters, digits, '-' or '_'.
func IsSafeKeySegment(s string) bool {
	return safeSegment.MatchString(s)
}
