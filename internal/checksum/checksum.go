// Package checksum fingerprints generated files so unchanged output is not
// rewritten.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Same reports whether a and b have equal digests.
func Same(a, b []byte) bool {
	return sha256.Sum256(a) == sha256.Sum256(b)
}
