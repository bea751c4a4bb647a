//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore backed user store.
package gae

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	"github.com/jmkang/duoauth"
)

// Kind constants for Datastore entities
const (
	KindUser  = "User"
	KindEmail = "Email"
)

// UserEntity is the Datastore representation of a user.
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Email        string         `datastore:"email"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	DisplayName  string         `datastore:"display_name"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *duoauth.User {
	return &duoauth.User{
		ID:           e.Key.Name,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		DisplayName:  e.DisplayName,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// EmailEntity reserves an email for a user id. Its key name is the
// normalized email, so creating it inside a transaction is the
// store-level uniqueness constraint.
type EmailEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// UserStore implements duoauth.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

// WithContext returns a copy of the store with the given context
func (s *UserStore) WithContext(ctx context.Context) *UserStore {
	return &UserStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *UserStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) CreateUser(user *duoauth.User) error {
	email := duoauth.NormalizeEmail(user.Email)
	emailKey := s.namespacedKey(KindEmail, email)
	userKey := s.namespacedKey(KindUser, user.ID)

	_, err := s.client.RunInTransaction(s.ctx, func(tx *datastore.Transaction) error {
		var existing EmailEntity
		err := tx.Get(emailKey, &existing)
		if err == nil {
			return duoauth.ErrEmailExists
		}
		if err != datastore.ErrNoSuchEntity {
			return err
		}

		now := time.Now()
		if _, err := tx.Put(emailKey, &EmailEntity{
			Key:       emailKey,
			UserID:    user.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		_, err = tx.Put(userKey, &UserEntity{
			Key:          userKey,
			Email:        email,
			PasswordHash: user.PasswordHash,
			DisplayName:  user.DisplayName,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
		})
		return err
	})
	return err
}

func (s *UserStore) GetUserByEmail(email string) (*duoauth.User, error) {
	emailKey := s.namespacedKey(KindEmail, duoauth.NormalizeEmail(email))
	var reservation EmailEntity
	if err := s.client.Get(s.ctx, emailKey, &reservation); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(reservation.UserID)
}

func (s *UserStore) GetUserByID(id string) (*duoauth.User, error) {
	key := s.namespacedKey(KindUser, id)
	var entity UserEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToUser(), nil
}

// ListUsers returns users ordered by creation time, up to limit.
// A limit of 0 means no limit.
func (s *UserStore) ListUsers(limit int) ([]*duoauth.User, error) {
	query := datastore.NewQuery(KindUser).Order("created_at")
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var users []*duoauth.User
	it := s.client.Run(s.ctx, query)
	for {
		var entity UserEntity
		key, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		entity.Key = key
		users = append(users, entity.ToUser())
	}
	return users, nil
}
