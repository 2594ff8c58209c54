package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviescout/internal/domain"
)

const maxQueryLength = 500

type SearchService interface {
	Search(ctx context.Context, query string, rank domain.RankMode) (domain.SearchResponse, error)
}

type CatalogService interface {
	Detail(ctx context.Context, id int) (domain.MovieDetail, error)
	Credits(ctx context.Context, id int) (domain.Credits, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
}

type AuthService interface {
	SignUp(ctx context.Context, username, email, password string) (domain.UserProfile, string, error)
	SignIn(ctx context.Context, email, password string) (domain.UserProfile, string, error)
	VerifyToken(token string) (string, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (domain.UserProfile, error)
	ToggleWatchlist(ctx context.Context, userID, movieID string) (bool, error)
	AppendHistory(ctx context.Context, userID, movieID string) error
}

type ReviewStore interface {
	Add(ctx context.Context, review domain.Review) error
	ListByMovie(ctx context.Context, movieID int) ([]domain.Review, error)
	Delete(ctx context.Context, reviewID, userID string) error
}

type Recommender interface {
	Random(ctx context.Context, genreID int) (domain.MovieSummary, error)
}

type Server struct {
	search    SearchService
	catalog   CatalogService
	auth      AuthService
	users     UserStore
	reviews   ReviewStore
	recommend Recommender
	logger    *slog.Logger
	debounce  time.Duration
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithCatalog(catalog CatalogService) ServerOption {
	return func(s *Server) {
		s.catalog = catalog
	}
}

func WithAuth(auth AuthService, users UserStore) ServerOption {
	return func(s *Server) {
		s.auth = auth
		s.users = users
	}
}

func WithReviews(reviews ReviewStore) ServerOption {
	return func(s *Server) {
		s.reviews = reviews
	}
}

func WithRecommender(recommend Recommender) ServerOption {
	return func(s *Server) {
		s.recommend = recommend
	}
}

func WithLiveDebounce(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search:   searchService,
		logger:   slog.Default(),
		debounce: 300 * time.Millisecond,
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/live", s.handleSearchLive)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/genres", s.handleGenres)
	mux.HandleFunc("/recommend", s.handleRecommend)
	mux.HandleFunc("/auth/signup", s.handleSignUp)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.HandleFunc("/movies/", s.handleMovies)
	mux.HandleFunc("/users/me", s.handleProfile)
	mux.HandleFunc("/users/me/", s.handleUserSubresources)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "moviescout",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long (max 500 characters)")
		return
	}
	rank := domain.NormalizeRankMode(strings.TrimSpace(r.URL.Query().Get("rank")))

	response, err := s.search.Search(r.Context(), query, rank)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.String("query", truncate(query, 80)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		return
	}

	failedBranches := make([]string, 0, len(response.Branches))
	for _, branch := range response.Branches {
		if !branch.OK {
			failedBranches = append(failedBranches, branch.Name)
		}
	}
	s.logger.Info("search completed",
		slog.String("query", truncate(query, 80)),
		slog.String("kind", string(response.Kind)),
		slog.Int("totalItems", response.TotalItems),
		slog.Int64("elapsedMs", response.ElapsedMS),
		slog.Int("failedBranches", len(failedBranches)),
	)
	if len(failedBranches) > 0 {
		s.logger.Warn("search branches failed",
			slog.String("query", truncate(query, 80)),
			slog.Any("failedBranches", failedBranches),
		)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/genres" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.catalog == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "catalog is not configured")
		return
	}

	genres, err := s.catalog.Genres(r.Context())
	if err != nil {
		s.logger.Warn("genre list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream_error", "genre list unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": genres})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/recommend" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.recommend == nil {
		writeError(w, http.StatusNotImplemented, "not_configured", "recommendations are not configured")
		return
	}

	genreID, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("genre")))
	if err != nil || genreID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "genre is required")
		return
	}

	movie, err := s.recommend.Random(r.Context(), genreID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no movies found for genre")
			return
		}
		s.logger.Warn("recommendation failed", slog.Int("genre", genreID), slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "upstream_error", "recommendation unavailable")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
