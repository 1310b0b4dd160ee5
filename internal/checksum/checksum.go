// Package checksum computes the digests served as ETags.
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

// Lines returns the digest of items, each terminated by a newline. The
// order of items is significant.
func Lines(items []string) string {
	h := sha256.New()
	for _, it := range items {
		_, _ = h.Write([]byte(it))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
