package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// Service orchestrates credential verification and token issuance.
type Service struct {
	users  repository.UserRepository
	hasher *Hasher
	tokens *TokenCodec
	logger logrus.FieldLogger
}

func NewService(users repository.UserRepository, hasher *Hasher, tokens *TokenCodec, logger logrus.FieldLogger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies username/password and returns a fresh session token.
// Unknown usernames and wrong passwords are indistinguishable to the
// caller; only debug logs record which one happened.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrAuthenticationFailed
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.WithField("username", username).Debug("login: unknown user")
			return "", ErrAuthenticationFailed
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.logger.WithField("username", username).Debug("login: wrong password")
		return "", ErrAuthenticationFailed
	}

	return s.tokens.Issue(user.Username)
}

// Register creates a new credential and immediately issues a token for
// it (auto-login). The existence pre-check keeps the flow free of
// partial writes; a concurrent duplicate insert is caught by the
// store's uniqueness constraint and surfaces as the same conflict.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", errors.New("username is required")
	}
	if password == "" {
		return "", errors.New("password is required")
	}
	if len(password) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("check username: %w", err)
	}
	if exists {
		return "", ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("username", username).Info("user registered")
	return s.tokens.Issue(user.Username)
}
