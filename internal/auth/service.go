// Package auth maps API bearer tokens to central owner ids.
//
// The reading lists service has no browser UI: its callers are sync
// clients holding long-lived tokens, so there are no sessions or login
// forms here, only token issuance and verification.
package auth

import (
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"github.com/wikimedia/readinglists/internal/config"
	"github.com/wikimedia/readinglists/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUsernameInvalid = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
)

// Service handles user creation and token verification.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{db: db, config: cfg}
}

// CreateUser registers a user and returns the user together with the
// plaintext token, which is shown exactly once.
func (s *Service) CreateUser(username string) (*entities.User, string, error) {
	if !usernamePattern.MatchString(username) {
		return nil, "", ErrUsernameInvalid
	}

	var existing entities.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, "", ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	secret, err := NewTokenSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := HashTokenSecret(secret, s.config.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash token secret: %w", err)
	}

	user := &entities.User{Username: username, TokenHash: hash}
	if err := s.db.Create(user).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}
	return user, FormatToken(user.ID, secret), nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(token string) (*entities.User, error) {
	id, secret, err := SplitToken(token)
	if err != nil {
		return nil, err
	}

	var user entities.User
	err = s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !CheckTokenSecret(secret, user.TokenHash) {
		return nil, ErrInvalidToken
	}
	return &user, nil
}
