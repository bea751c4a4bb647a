package gorm

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jmkang/duoauth"
)

// UserModel is the GORM model for users. The unique index on email is
// the authoritative guard against concurrent duplicate registrations.
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"uniqueIndex;size:255"`
	PasswordHash string    `gorm:"size:128"`
	DisplayName  string    `gorm:"size:32"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *duoauth.User {
	return &duoauth.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		DisplayName:  m.DisplayName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *duoauth.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Email:        duoauth.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// AutoMigrate creates the users table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements duoauth.UserStore using GORM.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(user *duoauth.User) error {
	if err := s.db.Create(UserToModel(user)).Error; err != nil {
		if isDuplicateKey(err) {
			return duoauth.ErrEmailExists
		}
		return err
	}
	return nil
}

func (s *UserStore) GetUserByEmail(email string) (*duoauth.User, error) {
	var model UserModel
	err := s.db.First(&model, "email = ?", duoauth.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *UserStore) GetUserByID(id string) (*duoauth.User, error) {
	var model UserModel
	err := s.db.First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, duoauth.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

// isDuplicateKey detects a unique constraint violation. GORM translates
// these to ErrDuplicatedKey only when the dialector opts in, so fall
// back to matching the driver message.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
