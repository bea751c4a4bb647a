package stores_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jmkang/duoauth"
	"github.com/jmkang/duoauth/stores"
)

func newUser(id, email string) *duoauth.User {
	now := time.Now()
	return &duoauth.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		DisplayName:  "Tester1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestFSUserStoreCreateAndGet(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	user := newUser("u1", "u@test.com")
	if err := store.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUserByID("u1")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Email != "u@test.com" || got.DisplayName != "Tester1" {
		t.Errorf("Unexpected user: %+v", got)
	}

	got, err = store.GetUserByEmail("u@test.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("Expected user u1, got %q", got.ID)
	}
}

func TestFSUserStoreEmailLookupIsCaseInsensitive(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	if err := store.CreateUser(newUser("u1", "u@test.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUserByEmail("U@TEST.COM")
	if err != nil {
		t.Fatalf("GetUserByEmail failed for upper-cased email: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("Expected user u1, got %q", got.ID)
	}
}

func TestFSUserStoreDuplicateEmail(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	if err := store.CreateUser(newUser("u1", "u@test.com")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	err := store.CreateUser(newUser("u2", "u@test.com"))
	if !errors.Is(err, duoauth.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got %v", err)
	}

	// The original user is untouched.
	got, err := store.GetUserByEmail("u@test.com")
	if err != nil || got.ID != "u1" {
		t.Errorf("Expected original user preserved, got %+v err=%v", got, err)
	}
}

func TestFSUserStoreNotFound(t *testing.T) {
	store := stores.NewFSUserStore(t.TempDir())

	if _, err := store.GetUserByEmail("missing@test.com"); !errors.Is(err, duoauth.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by email, got %v", err)
	}
	if _, err := store.GetUserByID("missing"); !errors.Is(err, duoauth.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound by id, got %v", err)
	}
}
