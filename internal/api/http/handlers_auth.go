package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"moviescout/internal/auth"
	"moviescout/internal/domain"
)

// bearerUserID extracts and verifies the Authorization bearer token,
// returning the authenticated user id. Empty string means no valid token.
func (s *Server) bearerUserID(r *http.Request) string {
	if s.auth == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return ""
	}
	userID, err := s.auth.VerifyToken(strings.TrimSpace(token))
	if err != nil {
		return ""
	}
	return userID
}

// requireUser writes a 401 and returns empty when the request carries no
// valid bearer token.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) string {
	if s.auth == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "authentication is not configured")
		return ""
	}
	userID := s.bearerUserID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "valid bearer token required")
		return ""
	}
	return userID
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.auth == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "authentication is not configured")
		return
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, token, err := s.auth.SignUp(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "already_exists", "email is already registered")
			return
		}
		if errors.Is(err, auth.ErrInvalidUsername) ||
			errors.Is(err, auth.ErrInvalidEmail) ||
			errors.Is(err, auth.ErrWeakPassword) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		s.logger.Error("signup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "signup failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":   token,
		"profile": profile,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.auth == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "authentication is not configured")
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, token, err := s.auth.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		s.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":   token,
		"profile": profile,
	})
}

// handleLogout acknowledges sign-out. Tokens are stateless; the client
// discards its copy and the token lapses at expiry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
}
