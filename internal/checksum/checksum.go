// Package checksum computes content digests for uploaded files.
// Digests double as strong ETags on download responses and as the
// basis for content-addressed handles in the upload sink.
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

// ETag returns the digest formatted as a quoted strong ETag.
func ETag(data []byte) string {
	return `"` + Sum(data) + `"`
}
