package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// GenerateETag returns a strong, quoted ETag built from the first 8 bytes of the SHA-256 of data
func GenerateETag(data []byte) string {
	sum := sha256.Sum256(data)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// CheckETag reports whether the request's If-None-Match equals etag
func CheckETag(r *http.Request, etag string) bool {
	match := r.Header.Get("If-None-Match")
	return match != "" && match == etag
}
