package app

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"marineai-backend/internal/pkg/jwtutil"
)

var (
	ErrInvalidCredential = errors.New("invalid password")
	ErrLoginDisabled     = errors.New("admin login is not configured")
)

// AuthService issues admin session tokens against the configured password.
type AuthService struct {
	passwordHash  string
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(passwordHash, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		passwordHash:  passwordHash,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Login(password string) (string, error) {
	if s.passwordHash == "" {
		return "", ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return "", err
	}
	return token, nil
}
