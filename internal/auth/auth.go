package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mealplanr/internal/clock"
	"mealplanr/internal/logger"
	"mealplanr/internal/user"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

// TokenType is reported alongside every issued access token.
const TokenType = "bearer"

// UserStore is the subset of the user repository auth needs.
type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// Claims are the JWT claims of an access token. Subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
}

// Service registers users, checks passwords and issues access tokens.
type Service struct {
	users     UserStore
	secretKey []byte
	accessTTL time.Duration
	clock     clock.Clock
	log       *logger.Logger
}

// NewService creates an auth service signing tokens with secretKey.
func NewService(users UserStore, secretKey string, accessTTL time.Duration, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{
		users:     users,
		secretKey: []byte(secretKey),
		accessTTL: accessTTL,
		clock:     clk,
		log:       log.With("service", "AuthService"),
	}
}

// AccessTTL returns how long issued tokens stay valid.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// Signup creates an account with the default profile and returns its first access token.
func (s *Service) Signup(ctx context.Context, email, password string) (string, *user.User, error) {
	email = user.NormalizeEmail(email)
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return "", nil, ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return "", nil, err
	}
	u := &user.User{
		Email:          email,
		HashedPassword: hashed,
		Profile:        user.DefaultProfile(),
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", nil, err
	}
	s.log.Info("user registered", "user_id", u.ID)

	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Login checks the password of email and returns a fresh access token.
// Unknown email and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !CheckPassword(u.HashedPassword, password) {
		s.log.Debug("login rejected", "user_id", u.ID)
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(u)
}

// IssueToken signs an HS256 access token for u.
func (s *Service) IssueToken(u *user.User) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*user.User, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	u, err := s.users.GetByEmail(ctx, claims.Subject)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return u, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
