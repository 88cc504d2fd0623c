package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	Prefix = "sha256="
	Header = "X-Signature-256"
)

// Sign computes the HMAC-SHA256 of body keyed by secret, formatted as "sha256=<hex_digest>"
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a "sha256=<hex_digest>" signature against body and secret
func Verify(body []byte, signature, secret string) bool {
	// Signature must be present
	if signature == "" {
		return false
	}

	if !strings.HasPrefix(signature, Prefix) {
		return false
	}

	receivedMAC := strings.TrimPrefix(signature, Prefix)
	if receivedMAC == "" {
		return false
	}

	expectedMAC := strings.TrimPrefix(Sign(body, secret), Prefix)

	// Constant-time comparison to prevent timing attacks
	return hmac.Equal([]byte(expectedMAC), []byte(receivedMAC))
}
