package auth

import (
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/auth/jwt"
)

// Service guards the question-writing endpoints behind an admin password.
type Service struct {
	passwordHash string
	tokenMgr     *jwt.Manager
	logger       zerolog.Logger
}

// NewService creates the admin auth service. An empty passwordHash
// disables authentication.
func NewService(passwordHash string, tokenCfg jwt.TokenConfig, logger zerolog.Logger) *Service {
	return &Service{
		passwordHash: passwordHash,
		tokenMgr:     jwt.NewManager(tokenCfg),
		logger:       logger.With().Str("component", "auth").Logger(),
	}
}

// Enabled reports whether writes require a token.
func (s *Service) Enabled() bool {
	return s.passwordHash != ""
}

// Login exchanges the admin password for an access token.
func (s *Service) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if err := VerifyPassword(s.passwordHash, password); err != nil {
		s.logger.Warn().Msg("admin login rejected")
		return "", err
	}
	return s.tokenMgr.GenerateAdminToken()
}

// ValidateToken checks an access token and its role.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := s.tokenMgr.Validate(token)
	if err != nil {
		return nil, err
	}
	if claims.Role != jwt.RoleAdmin {
		return nil, jwt.ErrInvalidToken
	}
	return claims, nil
}

// TokenTTLSeconds reports the lifetime of issued tokens.
func (s *Service) TokenTTLSeconds() int {
	return int(s.tokenMgr.TTL().Seconds())
}
