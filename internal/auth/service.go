package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moviescout/internal/domain"
)

const minPasswordLen = 8

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrWeakPassword    = errors.New("password too short")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidToken    = errors.New("invalid token")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, profile domain.UserProfile, passwordHash string) error
	Get(ctx context.Context, userID string) (domain.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (domain.UserProfile, string, error)
}

// Service handles email/password registration and sign-in and issues
// HS256 JWT access tokens. Sign-out is client-side token discard; tokens
// stay valid until expiry.
type Service struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func withClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(users UserStore, secret string, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: 72 * time.Hour,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers a new account and returns the profile with a fresh
// access token. Duplicate emails surface as domain.ErrAlreadyExists.
func (s *Service) SignUp(ctx context.Context, username, email, password string) (domain.UserProfile, string, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" {
		return domain.UserProfile{}, "", ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.UserProfile{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return domain.UserProfile{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserProfile{}, "", fmt.Errorf("hash password: %w", err)
	}

	profile := domain.UserProfile{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		Watchlist: []string{},
		History:   []string{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, profile, string(hash)); err != nil {
		return domain.UserProfile{}, "", err
	}

	token, err := s.issueToken(profile.ID)
	if err != nil {
		return domain.UserProfile{}, "", err
	}
	s.logger.Info("user registered", "userId", profile.ID, "username", username)
	return profile, token, nil
}

// SignIn verifies credentials and returns the profile with a fresh token.
// Unknown emails and wrong passwords both map to ErrInvalidCredentials so
// the response does not reveal which part failed.
func (s *Service) SignIn(ctx context.Context, email, password string) (domain.UserProfile, string, error) {
	email = normalizeEmail(email)

	profile, hash, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UserProfile{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.UserProfile{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.UserProfile{}, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(profile.ID)
	if err != nil {
		return domain.UserProfile{}, "", err
	}
	return profile, token, nil
}

// VerifyToken validates the token signature and expiry and returns the
// subject user id.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Profile loads the account for an already-verified user id.
func (s *Service) Profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	return s.users.Get(ctx, userID)
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
