package validation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"valid_simple", "user@example.com", true},
		{"valid_subdomain", "user@mail.example.com", true},
		{"valid_plus", "user+tag@example.com", true},
		{"valid_dash", "user-name@example.com", true},
		{"valid_dot", "user.name@example.com", true},
		{"valid_numbers", "user123@example456.com", true},
		{"invalid_no_at", "userexample.com", false},
		{"invalid_no_domain", "user@", false},
		{"invalid_no_user", "@example.com", false},
		{"invalid_double_at", "user@@example.com", false},
		{"invalid_spaces", "user @example.com", false},
		{"invalid_no_tld", "user@example", false},
		{"too_long", strings.Repeat("a", 95) + "@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidEmail(tt.email)
			assert.Equal(t, tt.valid, result, "Email: %s", tt.email)
		})
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"ten_digits", "1234567890", true},
		{"eleven_digits", "01234567890", true},
		{"country_code_plus", "+911234567890", true},
		{"country_code_digits", "441234567890", true},
		{"too_short", "12345", false},
		{"letters", "12345abcde", false},
		{"dashes", "123-456-7890", false},
		{"spaces", "+1 1234567890", false},
		{"empty", "", false},
		{"too_long", "+123456789012345678901", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidPhoneNumber(tt.phone)
			assert.Equal(t, tt.valid, result, "Phone: %s", tt.phone)
		})
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		length int
		valid  bool
	}{
		{"invite_code", "AB12CD", 6, true},
		{"token", "ABCDEFGH12345678", 16, true},
		{"lowercase", "ab12cd", 6, false},
		{"wrong_length", "AB12C", 6, false},
		{"symbols", "AB-2CD", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidCode(tt.code, tt.length))
		})
	}
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://cdn.example.com/pics/a.png"))
	assert.True(t, IsValidURL("http://example.com/a.jpg"))
	assert.False(t, IsValidURL("ftp://example.com/a.jpg"))
	assert.False(t, IsValidURL("/relative/path.png"))
	assert.False(t, IsValidURL("not a url"))
}

func TestValidator_ImplementsChecks(t *testing.T) {
	v := Validator{}
	assert.True(t, v.IsValidEmail("a@x.com"))
	assert.False(t, v.IsValidEmail("a@x"))
	assert.True(t, v.IsValidPhoneNumber("1234567890"))
	assert.False(t, v.IsValidPhoneNumber("123"))
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean_text", "Hello World", "Hello World"},
		{"null_bytes", "Hello\x00World", "HelloWorld"},
		{"control_chars", "Hello\x01\x02World", "HelloWorld"},
		{"keep_newlines", "Hello\nWorld", "Hello\nWorld"},
		{"keep_tabs", "Hello\tWorld", "Hello\tWorld"},
		{"keep_carriage_return", "Hello\rWorld", "Hello\rWorld"},
		{"mixed", "Hello\x00\x01\nWorld\t!", "Hello\nWorld\t!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeString(tt.input)
			assert.Equal(t, tt.expected, result)
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
		{"shorter_than_max", "Hello", 10, "Hello"},
		{"equal_to_max", "Hello", 5, "Hello"},
		{"longer_than_max", "Hello World", 5, "Hello"},
		{"empty", "", 10, ""},
		{"zero_max", "Hello", 0, ""},
		{"multibyte", "Zoë Żółw", 4, "Zoë "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateString(tt.input, tt.maxLen)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidator_SanitizeName(t *testing.T) {
	v := Validator{}

	assert.Equal(t, "Ada Lovelace", v.SanitizeName("  Ada\x00 \n Lovelace\t"))
	assert.Equal(t, "", v.SanitizeName("\x01\x02"))

	long := strings.Repeat("é", MaxNameLength+20)
	got := v.SanitizeName(long)
	assert.Equal(t, MaxNameLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}

func TestValidator_Codes(t *testing.T) {
	v := Validator{}

	assert.True(t, v.IsValidCode("AB12CD", 6))
	assert.False(t, v.IsValidCode("ab12cd", 6))
	assert.False(t, v.IsValidCode("AB12C", 6))
	assert.False(t, v.IsValidCode("", 6))
	assert.True(t, v.IsValidURL("https://cdn.example.com/a.png"))
	assert.False(t, v.IsValidURL("javascript:alert(1)"))
}
