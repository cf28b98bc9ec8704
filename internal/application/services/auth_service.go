package services

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/security"
)

// ErrInvalidCredentials is returned for a wrong admin password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates the back-office operator. Single operator,
// single password: the hash comes from configuration, a successful login
// yields a short-lived admin JWT.
type AuthService struct {
	passwordHash  string
	jwtSecret     string
	tokenLifetime time.Duration
	logger        *logging.ChanneledLogger
}

// NewAuthService creates the admin auth service. A configured password hash
// without a JWT secret gets a generated one, so admin access still works;
// tokens signed with it do not survive a restart.
func NewAuthService(passwordHash, jwtSecret string, tokenLifetime time.Duration, logger *logging.ChanneledLogger) *AuthService {
	if passwordHash != "" && jwtSecret == "" {
		generated, err := security.GenerateSecureKey(64)
		if err != nil {
			logger.Auth().Error("Failed to generate bootstrap JWT secret", "error", err.Error())
		} else {
			jwtSecret = generated
			logger.Auth().Warn("JWT_SECRET not configured, using a generated secret; admin tokens will not survive a restart")
		}
	}

	return &AuthService{
		passwordHash:  passwordHash,
		jwtSecret:     jwtSecret,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// Enabled reports whether admin access is configured at all.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != "" && s.jwtSecret != ""
}

// Login verifies the operator password and issues an admin token.
func (s *AuthService) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("admin access is not configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.logger.Auth().Warn("Admin login rejected")
		return "", ErrInvalidCredentials
	}

	token, err := security.GenerateAdminToken(s.jwtSecret, s.tokenLifetime)
	if err != nil {
		s.logger.Auth().Error("Failed to generate admin token", "error", err.Error())
		return "", err
	}

	s.logger.Auth().Info("Admin login succeeded")
	return token, nil
}

// ValidateToken checks an admin JWT and its role claim.
func (s *AuthService) ValidateToken(token string) bool {
	claims, err := security.ValidateJWT(token, s.jwtSecret)
	if err != nil {
		return false
	}
	return security.IsAdminClaims(claims)
}
