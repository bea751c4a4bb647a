// Package redis provides a Redis-backed user store.
//
// Users are stored as JSON under user:<id>; an email:<email> key maps
// each normalized email to its user id. The email key is claimed with
// SETNX, which is the store-level uniqueness constraint.
package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jmkang/duoauth"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "email:"
)

// UserStore implements duoauth.UserStore using Redis.
type UserStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client, ctx: context.Background()}
}

// WithContext returns a copy of the store with the given context.
func (s *UserStore) WithContext(ctx context.Context) *UserStore {
	return &UserStore{client: s.client, ctx: ctx}
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + duoauth.NormalizeEmail(email)
}

func (s *UserStore) CreateUser(user *duoauth.User) error {
	// Claim the email first. SETNX makes the claim atomic even when two
	// registrations race past the service-level pre-check.
	claimed, err := s.client.SetNX(s.ctx, emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return duoauth.ErrEmailExists
	}

	data, err := json.Marshal(user)
	if err == nil {
		err = s.client.Set(s.ctx, userKey(user.ID), data, 0).Err()
	}
	if err != nil {
		s.client.Del(s.ctx, emailKey(user.Email))
		return err
	}
	return nil
}

func (s *UserStore) GetUserByEmail(email string) (*duoauth.User, error) {
	id, err := s.client.Get(s.ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(id)
}

func (s *UserStore) GetUserByID(id string) (*duoauth.User, error) {
	data, err := s.client.Get(s.ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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
