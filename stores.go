package duoauth

import "time"

// User is a persisted local account. Every user has a unique email and
// a bcrypt password hash; the plaintext password never reaches a store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStore manages user accounts.
//
// CreateUser must enforce email uniqueness as a hard constraint and
// return ErrEmailExists on a duplicate: the register flow's
// check-then-create is not transactional, so two concurrent
// registrations for the same email may both pass the pre-check and race
// to create. Lookups return ErrUserNotFound when nothing matches.
// Implementations should key email lookups on NormalizeEmail(email).
type UserStore interface {
	CreateUser(user *User) error
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id string) (*User, error)
}
