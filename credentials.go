package duoauth

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Credentials carries the transient register/login input. The password
// is hashed before any storage and is never persisted as given.
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Password length bounds, inclusive.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 15
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// displayNameRegex allows 3 to 12 characters, each an ASCII letter or
// digit or in the Korean jamo/syllable range.
var displayNameRegex = regexp.MustCompile(`^[a-zA-Z0-9ㄱ-힣]{3,12}$`)

// ValidateLogin checks the email/password shape shared by both
// operations. The first failing field wins.
func ValidateLogin(creds *Credentials) *AuthError {
	if creds.Email == "" {
		return NewAuthError(ErrCodeMissingField, "Email is required", "email")
	}
	if !emailRegex.MatchString(creds.Email) {
		return NewAuthError(ErrCodeInvalidEmail, "Email must be a valid email address", "email")
	}
	if creds.Password == "" {
		return NewAuthError(ErrCodeMissingField, "Password is required", "password")
	}
	if n := utf8.RuneCountInString(creds.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return NewAuthError(ErrCodeInvalidPassword, "Password must be 6 to 15 characters", "password")
	}
	return nil
}

// ValidateRegister checks the full signup input. No store access
// happens before this passes.
func ValidateRegister(creds *Credentials) *AuthError {
	if err := ValidateLogin(creds); err != nil {
		return err
	}
	if creds.DisplayName == "" {
		return NewAuthError(ErrCodeMissingField, "Display name is required", "displayName")
	}
	if !displayNameRegex.MatchString(creds.DisplayName) {
		return NewAuthError(ErrCodeInvalidDisplayName,
			"Display name must be 3 to 12 letters, digits or Korean characters", "displayName")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email so lookups and the
// uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
