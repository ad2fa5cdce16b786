package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"simple", "translator@example.com", true},
		{"subdomain", "dev@mail.example.com", true},
		{"plus", "owner+langhub@example.com", true},
		{"no_at", "translatorexample.com", false},
		{"no_domain", "translator@", false},
		{"no_user", "@example.com", false},
		{"double_at", "a@@example.com", false},
		{"spaces", "trans lator@example.com", false},
		{"no_tld", "translator@example", false},
		{"too_long", strings.Repeat("a", 250) + "@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidEmail(tt.email), "Email: %s", tt.email)
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		name  string
		uuid  string
		valid bool
	}{
		{"lowercase", "550e8400-e29b-41d4-a716-446655440000", true},
		{"uppercase", "550E8400-E29B-41D4-A716-446655440000", true},
		{"short", "550e8400-e29b-41d4-a716", false},
		{"no_dashes", "550e8400e29b41d4a716446655440000", false},
		{"bad_letters", "ggge8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUUID(tt.uuid), "UUID: %s", tt.uuid)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean", "Mobile App", "Mobile App"},
		{"null_bytes", "Mobile\x00App", "MobileApp"},
		{"control_chars", "Mobile\x01\x02App", "MobileApp"},
		{"keeps_whitespace", "Line\nTab\tCR\r", "Line\nTab\tCR\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeString(tt.input))
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"shorter", "Hello", 10, "Hello"},
		{"equal", "Hello", 5, "Hello"},
		{"longer", "Hello World", 5, "Hello"},
		{"multibyte", "Übersetzung", 4, "Über"},
		{"zero", "Hello", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateString(tt.input, tt.maxLen))
		})
	}
}
