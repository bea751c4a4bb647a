// Package stores provides the filesystem-backed user store, suitable
// for development and small deployments. Production deployments should
// use one of the database backends in the subpackages.
package stores

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmkang/duoauth"
)

// FSUserStore stores users as JSON files. Each user document lives
// under users/<id>.json; an index file under emails/ maps each email to
// its user id. The index file is created with O_EXCL, which is the
// store's hard uniqueness constraint for emails.
type FSUserStore struct {
	StoragePath string
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(id string) string {
	return filepath.Join(s.StoragePath, "users", id+".json")
}

func (s *FSUserStore) emailPath(email string) string {
	return filepath.Join(s.StoragePath, "emails", url.PathEscape(duoauth.NormalizeEmail(email))+".json")
}

// emailIndex is the on-disk email -> user id mapping.
type emailIndex struct {
	UserID string `json:"user_id"`
}

func (s *FSUserStore) CreateUser(user *duoauth.User) error {
	emailPath := s.emailPath(user.Email)
	if err := os.MkdirAll(filepath.Dir(emailPath), 0755); err != nil {
		return err
	}

	// Claim the email first. O_EXCL makes the claim atomic even when
	// two registrations race past the service-level pre-check.
	f, err := os.OpenFile(emailPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return duoauth.ErrEmailExists
		}
		return err
	}
	indexData, err := json.Marshal(emailIndex{UserID: user.ID})
	if err == nil {
		_, err = f.Write(indexData)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(emailPath)
		return err
	}

	if err := s.saveUser(user); err != nil {
		os.Remove(emailPath)
		return err
	}
	return nil
}

func (s *FSUserStore) saveUser(user *duoauth.User) error {
	path := s.userPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) GetUserByEmail(email string) (*duoauth.User, error) {
	data, err := os.ReadFile(s.emailPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}

	var index emailIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("corrupt email index for %s: %w", email, err)
	}
	return s.GetUserByID(index.UserID)
}

func (s *FSUserStore) GetUserByID(id string) (*duoauth.User, error) {
	data, err := os.ReadFile(s.userPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}

	var user duoauth.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
