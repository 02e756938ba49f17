package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"rideshare/internal/auth"
	"rideshare/internal/domain"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	"rideshare/internal/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6

	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token    string
	Username string
	Role     domain.Role
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService. m may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	m *metrics.Metrics,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  m,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user and returns a token for it.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*AuthResult, error) {
	result, err := s.register(ctx, username, password, role)
	s.metrics.ObserveAuth("register", outcome(err))
	return result, err
}

func (s *AuthService) register(ctx context.Context, username, password, rawRole string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, ErrInvalidCredentialsInput
	}
	if utf8.RuneCountInString(password) < minPasswordLen || len(password) > maxPasswordBytes {
		return nil, ErrInvalidCredentialsInput
	}

	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with another registration of the same name.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		logger.String("user_id", user.ID),
		logger.String("username", user.Username),
		logger.String("role", string(user.Role)),
	)
	return s.issue(user)
}

// Login verifies credentials and returns a fresh token. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	result, err := s.login(ctx, username, password)
	s.metrics.ObserveAuth("login", outcome(err))
	return result, err
}

func (s *AuthService) login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, ErrBadCredentials
	}
	return s.issue(user)
}

// ParseToken resolves a bearer token to the principal it was issued for.
func (s *AuthService) ParseToken(token string) (domain.Principal, error) {
	return s.tokens.Parse(token)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
