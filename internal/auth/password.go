package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/yasinhessnawi1/authflow/internal/config"
	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// PasswordConfig holds the parameters for the Argon2id password hashing algorithm
type PasswordConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordConfig returns the default configuration for password hashing
func DefaultPasswordConfig() *PasswordConfig {
	return &PasswordConfig{
		Memory:      constants.DefaultArgonMemory,
		Iterations:  constants.DefaultArgonIterations,
		Parallelism: constants.DefaultArgonParallelism,
		SaltLength:  constants.DefaultArgonSaltLength,
		KeyLength:   constants.DefaultArgonKeyLength,
	}
}

// ConfigFromHashSettings creates a password config from the hash settings.
// Zero values fall back to the defaults.
func ConfigFromHashSettings(s config.HashSettings) *PasswordConfig {
	cfg := DefaultPasswordConfig()
	if s.Memory > 0 {
		cfg.Memory = s.Memory
	}
	if s.Iterations > 0 {
		cfg.Iterations = s.Iterations
	}
	if s.Parallelism > 0 {
		cfg.Parallelism = s.Parallelism
	}
	if s.SaltLength > 0 {
		cfg.SaltLength = s.SaltLength
	}
	if s.KeyLength > 0 {
		cfg.KeyLength = s.KeyLength
	}
	return cfg
}

// PasswordHasher hashes and verifies passwords with a fixed configuration.
type PasswordHasher struct {
	cfg       *PasswordConfig
	dummyHash string
	dummySalt string
}

// NewPasswordHasher creates a PasswordHasher. A nil config uses the defaults.
func NewPasswordHasher(cfg *PasswordConfig) (*PasswordHasher, error) {
	if cfg == nil {
		cfg = DefaultPasswordConfig()
	}

	dummyPassword, err := GenerateRandomString(constants.MinPasswordLength * 2)
	if err != nil {
		return nil, err
	}
	dummyHash, dummySalt, err := HashPassword(dummyPassword, cfg)
	if err != nil {
		return nil, err
	}

	return &PasswordHasher{cfg: cfg, dummyHash: dummyHash, dummySalt: dummySalt}, nil
}

// HashPassword returns the encoded hash and salt of password.
func (h *PasswordHasher) HashPassword(password string) (string, string, error) {
	return HashPassword(password, h.cfg)
}

// VerifyPassword compares password with a stored hash and salt.
func (h *PasswordHasher) VerifyPassword(password, encodedHash, encodedSalt string) (bool, error) {
	return VerifyPassword(password, encodedHash, encodedSalt, h.cfg)
}

// BurnVerify runs a verification against a throwaway hash. Login calls it
// for unknown emails so both failure paths cost the same.
func (h *PasswordHasher) BurnVerify(password string) {
	_, _ = VerifyPassword(password, h.dummyHash, h.dummySalt, h.cfg)
}

// HashPassword generates a hash of the provided password using Argon2id
// Returns the encoded hash and the salt used for hashing
func HashPassword(password string, cfg *PasswordConfig) (string, string, error) {
	salt, err := GenerateRandomBytes(cfg.SaltLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		cfg.Iterations,
		cfg.Memory,
		cfg.Parallelism,
		cfg.KeyLength,
	)

	encodedHash := base64.StdEncoding.EncodeToString(hash)
	encodedSalt := base64.StdEncoding.EncodeToString(salt)

	return encodedHash, encodedSalt, nil
}

// VerifyPassword compares a password with a hash and salt using Argon2id
func VerifyPassword(password, encodedHash, encodedSalt string, cfg *PasswordConfig) (bool, error) {
	hash, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}
	if len(hash) == 0 {
		return false, nil
	}

	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	// Key length follows the stored hash.
	comparisonHash := argon2.IDKey(
		[]byte(password),
		salt,
		cfg.Iterations,
		cfg.Memory,
		cfg.Parallelism,
		uint32(len(hash)),
	)

	return subtle.ConstantTimeCompare(hash, comparisonHash) == 1, nil
}

// GenerateRandomBytes generates cryptographically secure random bytes
func GenerateRandomBytes(length uint32) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// GenerateRandomString generates a random URL-safe string of the specified length
func GenerateRandomString(length uint32) (string, error) {
	b, err := GenerateRandomBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}
