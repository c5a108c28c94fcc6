package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/yasinhessnawi1/authflow/internal/auth"
)

func TestGenerateResetSecret(t *testing.T) {
	plaintext, hash, err := auth.GenerateResetSecret()
	if err != nil {
		t.Fatalf("Failed to generate reset secret: %v", err)
	}

	raw, err := hex.DecodeString(plaintext)
	if err != nil {
		t.Fatalf("Expected hex plaintext, got %q", plaintext)
	}
	if len(raw) < 20 {
		t.Errorf("Expected at least 20 bytes of entropy, got %d", len(raw))
	}

	if hash == plaintext {
		t.Error("Hash must differ from plaintext")
	}
	if hash != auth.HashResetSecret(plaintext) {
		t.Error("Expected hash to be the digest of the plaintext")
	}
	if len(hash) != 64 {
		t.Errorf("Expected sha256 hex digest, got length %d", len(hash))
	}

	other, _, _ := auth.GenerateResetSecret()
	if other == plaintext {
		t.Error("Expected distinct secrets")
	}
}

func TestMatchResetSecret(t *testing.T) {
	plaintext, hash, err := auth.GenerateResetSecret()
	if err != nil {
		t.Fatalf("Failed to generate reset secret: %v", err)
	}

	tests := []struct {
		name      string
		candidate string
		stored    string
		want      bool
	}{
		{"matching secret", plaintext, hash, true},
		{"different secret", plaintext + "0", hash, false},
		{"stored value is not a digest of candidate", plaintext, plaintext, false},
		{"empty candidate", "", hash, false},
		{"empty stored hash", plaintext, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := auth.MatchResetSecret(tt.candidate, tt.stored); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
