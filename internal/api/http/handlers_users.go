package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"moviescout/internal/domain"
)

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/users/me" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	if s.users == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "user store is not configured")
		return
	}

	profile, err := s.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "account no longer exists")
			return
		}
		s.logger.Error("profile lookup failed", slog.String("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleUserSubresources routes /users/me/watchlist[/{movieId}] and
// /users/me/history[/{movieId}].
func (s *Server) handleUserSubresources(w http.ResponseWriter, r *http.Request) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	if s.users == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "user store is not configured")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/users/me/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] == "watchlist":
		s.handleWatchlistList(w, r, userID)
	case len(parts) == 2 && parts[0] == "watchlist":
		s.handleWatchlistToggle(w, r, userID, parts[1])
	case len(parts) == 1 && parts[0] == "history":
		s.handleHistoryList(w, r, userID)
	case len(parts) == 2 && parts[0] == "history":
		s.handleHistoryAppend(w, r, userID, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleWatchlistList(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	profile, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("watchlist lookup failed", slog.String("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": profile.Watchlist})
}

// handleWatchlistToggle flips the movie's saved state and reports the new
// membership, so the client needs no separate add/remove endpoints.
func (s *Server) handleWatchlistToggle(w http.ResponseWriter, r *http.Request, userID, movieID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.TrimSpace(movieID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "movie id is required")
		return
	}

	saved, err := s.users.ToggleWatchlist(r.Context(), userID, movieID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "account no longer exists")
			return
		}
		s.logger.Error("watchlist toggle failed",
			slog.String("userId", userID),
			slog.String("movieId", movieID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update watchlist")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movieId": movieID,
		"saved":   saved,
	})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	profile, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("history lookup failed", slog.String("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": profile.History})
}

func (s *Server) handleHistoryAppend(w http.ResponseWriter, r *http.Request, userID, movieID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.TrimSpace(movieID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "movie id is required")
		return
	}

	if err := s.users.AppendHistory(r.Context(), userID, movieID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "account no longer exists")
			return
		}
		s.logger.Error("history append failed",
			slog.String("userId", userID),
			slog.String("movieId", movieID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not update history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movieId": movieID,
		"status":  "watched",
	})
}
