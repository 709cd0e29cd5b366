// Package cryptox holds the small hashing helpers used for credential material
// that must be looked up but never stored in the clear.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns the hex encoded SHA-256 digest of token.
//
// Reset tokens are high-entropy random strings, so a fast unsalted digest is
// enough to make a leaked table useless while keeping lookups indexable.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualStrings compares a and b in constant time.
func EqualStrings(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
