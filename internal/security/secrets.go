package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

const (
	// MinSecretLength is the length below which a signing secret is reported as weak.
	MinSecretLength = 32

	// MinEntropy is the minimum Shannon entropy (bits per character) of a strong secret.
	MinEntropy = 3.5

	// GeneratedSecretBytes is the number of random bytes behind GenerateSecret.
	GeneratedSecretBytes = 32
)

var placeholderSecrets = map[string]bool{
	"replace-with-secret": true,
	"webhook-secret":      true,
	"topsecret":           true,
	"secret":              true,
	"password":            true,
	"changeme":            true,
}

// CheckSecret reports why a signing secret looks weak, or nil when it does not.
// Callers decide whether the result is a warning or a failure.
// Checks:
// - Minimum length (32 characters)
// - Not a placeholder value
// - Sufficient Shannon entropy (minimum 3.5)
func CheckSecret(secret string) error {
	if len(secret) < MinSecretLength {
		return fmt.Errorf("secret too short (minimum %d characters, got %d)", MinSecretLength, len(secret))
	}

	secretLower := strings.ToLower(secret)
	if placeholderSecrets[secretLower] ||
		strings.Contains(secretLower, "replace") ||
		strings.Contains(secretLower, "changeme") {
		return fmt.Errorf("secret appears to be a placeholder value")
	}

	if isSequential(secret) {
		return fmt.Errorf("secret consists of sequential characters")
	}

	entropy := calculateEntropy(secret)
	if entropy < MinEntropy {
		return fmt.Errorf("secret has insufficient entropy (%.2f < %.2f)", entropy, MinEntropy)
	}

	return nil
}

// GenerateSecret creates a cryptographically secure random secret.
// Returns a 64-character hex string.
func GenerateSecret() (string, error) {
	bytes := make([]byte, GeneratedSecretBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// calculateEntropy computes the Shannon entropy of a string.
// Returns a value between 0 (completely predictable) and ~8 (maximum entropy for byte strings).
func calculateEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	freq := make(map[rune]int)
	for _, c := range s {
		freq[c]++
	}

	// H = -Σ(p(x) * log2(p(x)))
	var entropy float64
	length := float64(len(s))

	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// isSequential checks if a string consists of sequential characters.
func isSequential(s string) bool {
	if len(s) < 4 {
		return false
	}

	sequential := 0
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1]+1 || s[i] == s[i-1]-1 {
			sequential++
		}
	}

	// More than 70% sequential pairs
	return float64(sequential) > float64(len(s))*0.7
}
