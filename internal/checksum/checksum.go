// Package checksum fingerprints workspace file contents. The same digest
// keys the search index and serves as the HTTP entity tag of a file.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum as a strong entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// FromETag returns the checksum carried by an If-Match or ETag header.
// Weak tags and bare checksums are accepted; "*" and empty headers yield
// "".
func FromETag(header string) string {
	h := strings.TrimSpace(header)
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	if h == "*" {
		return ""
	}
	return h
}
