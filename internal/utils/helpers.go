// Package utils provides utility functions and helpers for the application.
//
// The helpers.go file holds small string helpers shared by the services and
// the logging code.
package utils

import (
	"strings"

	"github.com/yasinhessnawi1/authflow/internal/constants"
)

// NormalizeEmail trims and lowercases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail masks the local part of an email address for logging.
// For example: "user@example.com" becomes "u**r@example.com"
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	user := parts[0]
	domain := parts[1]

	if len(user) <= 2 {
		return email
	}

	return string(user[0]) + strings.Repeat("*", len(user)-2) + string(user[len(user)-1]) + "@" + domain
}

// SanitizeKeys returns a copy of data with sensitive values redacted,
// recursing into nested maps.
func SanitizeKeys(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))

	for k, v := range data {
		if isSensitiveKey(k) {
			result[k] = constants.LogRedactedValue
			continue
		}

		if nestedMap, ok := v.(map[string]interface{}); ok {
			result[k] = SanitizeKeys(nestedMap)
			continue
		}

		result[k] = v
	}

	return result
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	switch key {
	case "password", "token", "secret", "resettoken", "authorization":
		return true
	}
	return ContainsString(constants.SensitiveQueryFields, key)
}

// ContainsString checks if a slice of strings contains a specific string.
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}
