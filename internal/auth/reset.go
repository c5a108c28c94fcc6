// Package auth provides session tokens, password hashing and the one-time
// reset secrets of the password reset flow.
//
// This file implements reset secrets. The plaintext secret is delivered out
// of band and never stored; the server keeps only its SHA-256 digest.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// GenerateResetSecret creates a new reset secret.
//
// Returns:
//   - plaintext: the hex-encoded secret to send to the user
//   - hash: the digest to persist
//   - error: if the random source fails
func GenerateResetSecret() (string, string, error) {
	secretBytes, err := GenerateRandomBytes(constants.ResetSecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate reset secret: %w", err)
	}

	plaintext := hex.EncodeToString(secretBytes)
	return plaintext, HashResetSecret(plaintext), nil
}

// HashResetSecret returns the hex SHA-256 digest of a reset secret.
func HashResetSecret(plaintext string) string {
	hash := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(hash[:])
}

// MatchResetSecret reports whether candidate hashes to storedHash.
func MatchResetSecret(candidate, storedHash string) bool {
	if candidate == "" || storedHash == "" {
		return false
	}
	candidateHash := HashResetSecret(candidate)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(storedHash)) == 1
}
