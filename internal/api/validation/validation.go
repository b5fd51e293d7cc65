package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/hugh/go-invite/internal/auth"
)

// MaxNameLength matches the users.name column.
const MaxNameLength = 100

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// PhoneRegex accepts an optional country prefix followed by 10 or 11 digits
	phoneRegex = regexp.MustCompile(`^(?:[+0-9]{1,3})*[0-9]{10,11}$`)

	// InviteCodeRegex matches invite codes and session tokens
	codeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// Validator implements auth.Validator with the package level checks.
type Validator struct{}

var _ auth.Validator = Validator{}

func (Validator) IsValidEmail(email string) bool {
	return IsValidEmail(email)
}

func (Validator) IsValidPhoneNumber(phone string) bool {
	return IsValidPhoneNumber(phone)
}

func (Validator) IsValidURL(s string) bool {
	return IsValidURL(s)
}

func (Validator) IsValidCode(s string, length int) bool {
	return IsValidCode(s, length)
}

// SanitizeName strips control characters, collapses runs of whitespace and
// caps the result at the name column width.
func (Validator) SanitizeName(name string) string {
	name = strings.Join(strings.Fields(SanitizeString(name)), " ")
	return TruncateString(name, MaxNameLength)
}

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 100 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidPhoneNumber checks if the string is a valid phone number
func IsValidPhoneNumber(phone string) bool {
	if len(phone) > 20 {
		return false
	}
	return phoneRegex.MatchString(phone)
}

// IsValidCode checks that s looks like an invite code or token of the given length
func IsValidCode(s string, length int) bool {
	return len(s) == length && codeRegex.MatchString(s)
}

// IsValidURL checks for an absolute http(s) URL, used for profile pictures
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TruncateString truncates a string to maxLen characters without splitting a rune
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}
