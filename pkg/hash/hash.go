// Package hash signs and verifies payloads with HMAC-SHA256.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeHash returns the hexadecimal HMAC-SHA256 of data under key, or an
// empty string when key is empty.
//
// The server uses it to sign exposition bodies; scrapers sharing the key
// recompute it to check the body they received.
//
// Example:
//
//	body := []byte("# TYPE up gauge\nup 1.0\n")
//	signature := ComputeHash(body, "my-secret-key") // 64 hex characters
func ComputeHash(data []byte, key string) string {
	if key == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateHash reports whether receivedHash is the signature of data.
//
// Validation Rules:
//   - If key is empty: Returns true (validation disabled)
//   - If receivedHash is empty: Returns false (no signature to verify)
//   - Otherwise: Compares in constant time with hmac.Equal
func ValidateHash(data []byte, key string, receivedHash string) bool {
	if key == "" {
		return true
	}

	if receivedHash == "" {
		return false
	}

	expectedHash := ComputeHash(data, key)
	return hmac.Equal([]byte(expectedHash), []byte(receivedHash))
}
