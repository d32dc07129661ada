package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mvetrov/churnguard/internal/auth"
)

// registerRequest is the request body for POST /v1/auth/register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// loginRequest is the request body for POST /v1/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authResponse carries the issued API token. The token is shown exactly
// once; only its hash is stored.
type authResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		var verr *auth.ValidationError
		if !errors.As(err, &verr) {
			s.log.Error().Err(err).Msg("register failed")
		}
		s.writeDomainError(w, r, err)
		return
	}

	s.log.Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("user registered")
	writeJSON(w, http.StatusCreated, authResponse{
		UserID:   user.ID,
		Username: user.Username,
		Token:    token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			UnauthorizedError(w, r, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("login failed")
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID:   user.ID,
		Username: user.Username,
		Token:    token,
	})
}
