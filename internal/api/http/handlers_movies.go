package apihttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"moviescout/internal/domain"
)

const maxReviewTextLength = 4000

// handleMovies routes /movies/{id}, /movies/{id}/credits and
// /movies/{id}/reviews[/{reviewId}].
func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/movies/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	movieID, err := strconv.Atoi(parts[0])
	if err != nil || movieID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid movie id")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleMovieDetail(w, r, movieID)
	case len(parts) == 2 && parts[1] == "credits":
		s.handleMovieCredits(w, r, movieID)
	case len(parts) == 2 && parts[1] == "reviews":
		s.handleMovieReviews(w, r, movieID)
	case len(parts) == 3 && parts[1] == "reviews":
		s.handleReviewDelete(w, r, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleMovieDetail(w http.ResponseWriter, r *http.Request, movieID int) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "catalog is not configured")
		return
	}

	detail, err := s.catalog.Detail(r.Context(), movieID)
	if err != nil {
		s.logger.Warn("movie detail failed", slog.Int("movieId", movieID), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream_error", "movie detail unavailable")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMovieCredits(w http.ResponseWriter, r *http.Request, movieID int) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "catalog is not configured")
		return
	}

	credits, err := s.catalog.Credits(r.Context(), movieID)
	if err != nil {
		s.logger.Warn("movie credits failed", slog.Int("movieId", movieID), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream_error", "movie credits unavailable")
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

func (s *Server) handleMovieReviews(w http.ResponseWriter, r *http.Request, movieID int) {
	if s.reviews == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "reviews are not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleReviewList(w, r, movieID)
	case http.MethodPost:
		s.handleReviewCreate(w, r, movieID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleReviewList returns the movie's reviews. With a valid bearer token
// the caller's own reviews are moved to the front; ordering is per-viewer
// and never stored.
func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request, movieID int) {
	reviews, err := s.reviews.ListByMovie(r.Context(), movieID)
	if err != nil {
		s.logger.Error("review list failed", slog.Int("movieId", movieID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load reviews")
		return
	}

	viewerID := s.bearerUserID(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": domain.OrderReviewsForDisplay(reviews, viewerID),
	})
}

func (s *Server) handleReviewCreate(w http.ResponseWriter, r *http.Request, movieID int) {
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	if s.users == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "user store is not configured")
		return
	}

	var payload struct {
		Rating int    `json:"rating"`
		Text   string `json:"text"`
	}
	if err := decodeJSONBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if payload.Rating < 0 || payload.Rating > 5 {
		writeError(w, http.StatusBadRequest, "invalid_request", "rating must be between 0 and 5")
		return
	}
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "review text is required")
		return
	}
	if len(text) > maxReviewTextLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "review text too long")
		return
	}

	profile, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("review author lookup failed", slog.String("userId", userID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not submit review")
		return
	}

	review := domain.Review{
		ID:        uuid.NewString(),
		MovieID:   movieID,
		UserID:    userID,
		Username:  profile.Username,
		Rating:    payload.Rating,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Add(r.Context(), review); err != nil {
		s.logger.Error("review insert failed", slog.Int("movieId", movieID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not submit review")
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleReviewDelete(w http.ResponseWriter, r *http.Request, reviewID string) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := s.requireUser(w, r)
	if userID == "" {
		return
	}
	if strings.TrimSpace(reviewID) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "review id is required")
		return
	}

	err := s.reviews.Delete(r.Context(), reviewID, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "review not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "only the author can delete a review")
	default:
		s.logger.Error("review delete failed", slog.String("reviewId", reviewID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "could not delete review")
	}
}
