package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/claritytracking/clarity-go/internal/metrics"
	"github.com/claritytracking/clarity-go/internal/model"
	"github.com/claritytracking/clarity-go/internal/repository"
)

const (
	minPasswordLen = 8
	maxNameLen     = 100

	// TokenTypeBearer is the token_type returned on login.
	TokenTypeBearer = "bearer"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer issues and validates access tokens carrying a user ID.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
	Validate(token string) (int64, error)
}

// AuthService handles registration, login and identity lookups.
type AuthService struct {
	repo   *repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a user and its credential atomically.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	name := model.DefaultUserName
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "must not be blank")
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return nil, invalid("name", "max length %d", maxNameLen)
		}
	}

	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return nil, invalid("password", "must be at least %d characters", minPasswordLen)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		RegisteredAt: s.now(),
	}

	if err := s.repo.CreateWithCredential(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials and returns a bearer token. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, cred, err := s.repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn the same hashing cost as a real check.
			s.hasher.Verify(req.Password, s.dummy())
			metrics.LoginFailures.Inc()
			return model.TokenResponse{}, ErrInvalidCredentials
		}
		return model.TokenResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, cred.PasswordHash)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		metrics.LoginFailures.Inc()
		return model.TokenResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// CurrentUser returns the user behind an authenticated request. A token for a
// user that no longer exists is treated as invalid credentials.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("clarity-timing-equalizer")
	})
	return s.dummyHash
}
