package duoauth

import "errors"

// Error codes attached to AuthError values.
const (
	ErrCodeInvalidEmail       = "invalid_email"
	ErrCodeInvalidPassword    = "invalid_password"
	ErrCodeInvalidDisplayName = "invalid_display_name"
	ErrCodeMissingField       = "missing_field"
	ErrCodeEmailExists        = "email_exists"
	ErrCodeInvalidCreds       = "invalid_credentials"
	ErrCodeInternal           = "internal_error"
)

// Sentinel errors returned by UserStore implementations.
var (
	// ErrEmailExists is returned by CreateUser when the email is already
	// taken. Stores must enforce this as a hard constraint so that two
	// concurrent registrations cannot both succeed.
	ErrEmailExists = errors.New("email already exists")

	// ErrUserNotFound is returned by lookups that match no user.
	ErrUserNotFound = errors.New("user not found")
)

// AuthError is a user-facing authentication failure. Validation and
// conflict errors are returned as values from the auth operations and
// translated to an HTTP status at the boundary, rather than flowing
// through a generic error middleware.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates an AuthError with the given code, message and field.
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// IsConflict reports whether the error should surface as a conflict
// (validation, duplicate email, bad credentials) rather than a server error.
func (e *AuthError) IsConflict() bool {
	return e.Code != ErrCodeInternal
}
