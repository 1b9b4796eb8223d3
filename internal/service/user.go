// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/cache"
	"github.com/projectdesk/projectdesk/internal/metrics"
	"github.com/projectdesk/projectdesk/internal/model"
	"github.com/projectdesk/projectdesk/internal/repository"
)

// Account and login errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

// Email validation regex: local part, @, domain with a dot.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
	maxEmailLength    = 254
)

// UserService handles registration, login and account lookups.
type UserService struct {
	repo    *repository.Repository
	cache   *cache.Cache
	tokens  *auth.TokenManager
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, cache *cache.Cache, tokens *auth.TokenManager, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		repo:    repo,
		cache:   cache,
		tokens:  tokens,
		metrics: recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := normalizeEmail(input.Email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	return user, nil
}

// LoginInput defines input for authenticating.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput carries the issued token.
type LoginOutput struct {
	Token     string
	ExpiresIn int64 // seconds
	User      *model.User
}

// Login verifies credentials and issues an access token. An unknown
// email is reported as ErrUserNotFound, not folded into the
// credentials error.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	email := normalizeEmail(input.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.LoginNotFound)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, input.Password) {
		s.metrics.IncLogin(metrics.LoginInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.IncLogin(metrics.LoginInactive)
		return nil, ErrUserInactive
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.LoginSuccess)

	return &LoginOutput{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      user,
	}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *UserService) Logout(ctx context.Context, authCtx *model.AuthContext) error {
	if authCtx == nil || authCtx.TokenID == "" {
		return nil
	}

	until := authCtx.ExpiresAt
	if until.IsZero() {
		until = time.Now().Add(s.tokens.TTL())
	}
	if err := s.cache.RevokeToken(ctx, authCtx.TokenID, until); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.metrics.IncTokenRevoked()

	return nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// validateEmail validates a normalized email address.
func (s *UserService) validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// validatePassword enforces password length bounds.
func (s *UserService) validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// normalizeEmail lowercases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
