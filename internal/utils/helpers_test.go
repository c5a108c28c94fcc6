package utils_test

import (
	"reflect"
	"testing"

	"github.com/yasinhessnawi1/authflow/internal/utils"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ann@Example.COM ", "ann@example.com"},
		{"ann@example.com", "ann@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := utils.NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"regular", "user@example.com", "u**r@example.com"},
		{"short local part", "ab@example.com", "ab@example.com"},
		{"not an email", "not-an-email", "not-an-email"},
		{"two at signs", "a@b@c", "a@b@c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.MaskEmail(tt.email); got != tt.want {
				t.Errorf("MaskEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestSanitizeKeys(t *testing.T) {
	input := map[string]interface{}{
		"email":         "ann@example.com",
		"Password":      "secret1",
		"token":         "abc",
		"password_hash": "$argon2id$...",
		"nested": map[string]interface{}{
			"resetToken": "deadbeef",
			"name":       "Ann",
		},
	}

	want := map[string]interface{}{
		"email":         "ann@example.com",
		"Password":      "[REDACTED]",
		"token":         "[REDACTED]",
		"password_hash": "[REDACTED]",
		"nested": map[string]interface{}{
			"resetToken": "[REDACTED]",
			"name":       "Ann",
		},
	}

	got := utils.SanitizeKeys(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeKeys() = %v, want %v", got, want)
	}
	if input["Password"] != "secret1" {
		t.Error("SanitizeKeys modified its input")
	}
}

func TestContainsString(t *testing.T) {
	slice := []string{"a", "b"}
	if !utils.ContainsString(slice, "b") {
		t.Error("ContainsString should find b")
	}
	if utils.ContainsString(slice, "c") {
		t.Error("ContainsString should not find c")
	}
	if utils.ContainsString(nil, "a") {
		t.Error("ContainsString on nil slice should be false")
	}
}
