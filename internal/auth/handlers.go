package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gokatarajesh/trivia/pkg/api"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

// ErrAuthDisabled is returned by Login when no admin password is configured.
var ErrAuthDisabled = errors.New("authentication is not configured")

// HandleLogin handles POST /auth/login
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Password == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "password is required", "password")
		return
	}

	token, err := s.Login(req.Password)
	switch {
	case errors.Is(err, ErrAuthDisabled):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Authentication is not enabled")
		return
	case errors.Is(err, ErrInvalidPassword):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid credentials")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("token generation failed")
		httperrors.RespondInternalError(w, "Internal server error")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, api.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.TokenTTLSeconds(),
	})
}
