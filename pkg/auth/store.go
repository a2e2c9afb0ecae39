package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned for a bad username/password pair or a
// deactivated account. Callers must not distinguish the two cases.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store provides user persistence and credential checks.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the users table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("auto-migrate users: %w", err)
	}
	return nil
}

// Create persists a new user, hashing the given plaintext password.
func (s *Store) Create(u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.Active = true
	if err := s.db.Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (s *Store) Get(id uint) (*User, error) {
	var u User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (s *Store) GetByUsername(username string) (*User, error) {
	var u User
	if err := s.db.First(&u, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// Authenticate verifies a username/password pair and records the login
// time. Deactivated accounts fail the same way as wrong passwords.
func (s *Store) Authenticate(username, password string) (*User, error) {
	u, err := s.GetByUsername(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	u.LastLogin = &now
	if err := s.db.Model(u).Update("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("record login time: %w", err)
	}
	return u, nil
}

// EnsureAdmin seeds the default admin account when no user with the given
// username exists. Idempotent across restarts.
func (s *Store) EnsureAdmin(username, password string) error {
	_, err := s.GetByUsername(username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.Create(&User{
		Username: username,
		Email:    username + "@localhost",
		RealName: "Administrator",
		Role:     RoleAdmin,
	}, password)
}
