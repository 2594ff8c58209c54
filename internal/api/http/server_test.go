package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"moviescout/internal/domain"
)

type fakeSearchService struct {
	mu        sync.Mutex
	lastQuery string
	lastRank  domain.RankMode
	callCount int
	err       error
}

func (f *fakeSearchService) Search(_ context.Context, query string, rank domain.RankMode) (domain.SearchResponse, error) {
	f.mu.Lock()
	f.callCount++
	f.lastQuery = query
	f.lastRank = rank
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return domain.SearchResponse{}, err
	}
	return domain.SearchResponse{
		Query: query,
		Kind:  domain.QueryFreeText,
		Rank:  rank,
		Items: []domain.MovieSummary{
			{ID: 42, Title: query + " result", PosterPath: "/p.jpg", Overview: "o", Popularity: 7},
		},
		Branches:   []domain.BranchStatus{{Name: "title", Pages: 6, OK: true, Count: 1}},
		TotalItems: 1,
	}, nil
}

func (f *fakeSearchService) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

type fakeCatalogService struct {
	detailErr error
}

func (f *fakeCatalogService) Detail(_ context.Context, id int) (domain.MovieDetail, error) {
	if f.detailErr != nil {
		return domain.MovieDetail{}, f.detailErr
	}
	return domain.MovieDetail{ID: id, Title: "Detail", Runtime: 120}, nil
}

func (f *fakeCatalogService) Credits(_ context.Context, id int) (domain.Credits, error) {
	return domain.Credits{ID: id, Cast: []domain.CastMember{{ID: 1, Name: "Lead"}}}, nil
}

func (f *fakeCatalogService) Genres(context.Context) ([]domain.Genre, error) {
	return []domain.Genre{{ID: 28, Name: "Action"}}, nil
}

type fakeAuthService struct{}

func (f *fakeAuthService) SignUp(_ context.Context, username, email, _ string) (domain.UserProfile, string, error) {
	if email == "dup@example.com" {
		return domain.UserProfile{}, "", domain.ErrAlreadyExists
	}
	profile := domain.UserProfile{ID: "new-user", Username: username, Email: email}
	return profile, "token-new-user", nil
}

func (f *fakeAuthService) SignIn(_ context.Context, email, password string) (domain.UserProfile, string, error) {
	if email != "scout@example.com" || password != "right password" {
		return domain.UserProfile{}, "", domain.ErrInvalidCredentials
	}
	return domain.UserProfile{ID: "user-1", Username: "scout", Email: email}, "token-user-1", nil
}

func (f *fakeAuthService) VerifyToken(token string) (string, error) {
	userID, ok := strings.CutPrefix(token, "token-")
	if !ok || userID == "" {
		return "", errors.New("invalid token")
	}
	return userID, nil
}

type fakeUserStore struct {
	profiles   map[string]*domain.UserProfile
	toggleErr  error
	historyErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{profiles: map[string]*domain.UserProfile{
		"user-1": {
			ID:        "user-1",
			Username:  "scout",
			Email:     "scout@example.com",
			Watchlist: []string{"550"},
			History:   []string{"680"},
		},
	}}
}

func (f *fakeUserStore) Get(_ context.Context, userID string) (domain.UserProfile, error) {
	profile, ok := f.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrNotFound
	}
	return *profile, nil
}

func (f *fakeUserStore) ToggleWatchlist(_ context.Context, userID, movieID string) (bool, error) {
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return false, domain.ErrNotFound
	}
	for i, id := range profile.Watchlist {
		if id == movieID {
			profile.Watchlist = append(profile.Watchlist[:i], profile.Watchlist[i+1:]...)
			return false, nil
		}
	}
	profile.Watchlist = append(profile.Watchlist, movieID)
	return true, nil
}

func (f *fakeUserStore) AppendHistory(_ context.Context, userID, movieID string) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return domain.ErrNotFound
	}
	profile.History = append(profile.History, movieID)
	return nil
}

type fakeReviewStore struct {
	reviews   []domain.Review
	deleteErr error
}

func (f *fakeReviewStore) Add(_ context.Context, review domain.Review) error {
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviewStore) ListByMovie(_ context.Context, movieID int) ([]domain.Review, error) {
	var out []domain.Review
	for _, review := range f.reviews {
		if review.MovieID == movieID {
			out = append(out, review)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) Delete(_ context.Context, reviewID, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, review := range f.reviews {
		if review.ID != reviewID {
			continue
		}
		if review.UserID != userID {
			return domain.ErrForbidden
		}
		f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
		return nil
	}
	return domain.ErrNotFound
}

type fakeRecommender struct {
	movie domain.MovieSummary
	err   error
}

func (f *fakeRecommender) Random(_ context.Context, _ int) (domain.MovieSummary, error) {
	if f.err != nil {
		return domain.MovieSummary{}, f.err
	}
	return f.movie, nil
}

type serverFixture struct {
	search    *fakeSearchService
	catalog   *fakeCatalogService
	users     *fakeUserStore
	reviews   *fakeReviewStore
	recommend *fakeRecommender
	handler   http.Handler
}

func newFixture() *serverFixture {
	f := &serverFixture{
		search:    &fakeSearchService{},
		catalog:   &fakeCatalogService{},
		users:     newFakeUserStore(),
		reviews:   &fakeReviewStore{},
		recommend: &fakeRecommender{movie: domain.MovieSummary{ID: 7, Title: "Pick"}},
	}
	f.handler = NewServer(f.search,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithCatalog(f.catalog),
		WithAuth(&fakeAuthService{}, f.users),
		WithReviews(f.reviews),
		WithRecommender(f.recommend),
	).Handler()
	return f
}

func (f *serverFixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/search?q=inception&rank=relevance", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.search.lastQuery != "inception" {
		t.Errorf("query passed = %q, want %q", f.search.lastQuery, "inception")
	}
	if f.search.lastRank != domain.RankByRelevance {
		t.Errorf("rank passed = %q, want relevance", f.search.lastRank)
	}

	var response domain.SearchResponse
	decodeBody(t, rec, &response)
	if response.TotalItems != 1 || len(response.Items) != 1 {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestSearchEmptyQueryAllowed(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/search", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (empty query returns popular feed)", rec.Code)
	}
	if got := f.search.calls(); got != 1 {
		t.Errorf("search called %d times, want 1", got)
	}
}

func TestSearchQueryTooLong(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/search?q="+strings.Repeat("a", maxQueryLength+1), "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchUnknownRankDefaultsToPopularity(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/search?q=x&rank=bogus", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if f.search.lastRank != domain.RankByPopularity {
		t.Errorf("rank = %q, want popularity", f.search.lastRank)
	}
}

func TestGenres(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/genres", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload struct {
		Items []domain.Genre `json:"items"`
	}
	decodeBody(t, rec, &payload)
	if len(payload.Items) != 1 || payload.Items[0].Name != "Action" {
		t.Errorf("unexpected genres: %+v", payload.Items)
	}
}

func TestRecommend(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/recommend?genre=28", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var movie domain.MovieSummary
	decodeBody(t, rec, &movie)
	if movie.ID != 7 {
		t.Errorf("movie id = %d, want 7", movie.ID)
	}

	if rec := f.do(t, http.MethodGet, "/recommend", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("missing genre status = %d, want 400", rec.Code)
	}

	f.recommend.err = domain.ErrNotFound
	if rec := f.do(t, http.MethodGet, "/recommend?genre=999", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown genre status = %d, want 404", rec.Code)
	}
}

func TestSignUp(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "scout",
		"email":    "fresh@example.com",
		"password": "long enough pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Token   string             `json:"token"`
		Profile domain.UserProfile `json:"profile"`
	}
	decodeBody(t, rec, &payload)
	if payload.Token == "" || payload.Profile.ID == "" {
		t.Errorf("incomplete signup payload: %+v", payload)
	}

	rec = f.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "other",
		"email":    "dup@example.com",
		"password": "long enough pw",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email status = %d, want 409", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "scout@example.com",
		"password": "right password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "scout@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestLogoutRequiresToken(t *testing.T) {
	f := newFixture()
	if rec := f.do(t, http.MethodPost, "/auth/logout", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/auth/logout", "token-user-1", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMovieDetailAndCredits(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/movies/550", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	var detail domain.MovieDetail
	decodeBody(t, rec, &detail)
	if detail.ID != 550 {
		t.Errorf("detail id = %d, want 550", detail.ID)
	}

	rec = f.do(t, http.MethodGet, "/movies/550/credits", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("credits status = %d", rec.Code)
	}

	if rec := f.do(t, http.MethodGet, "/movies/not-a-number", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestReviewLifecycle(t *testing.T) {
	f := newFixture()

	// Unauthenticated POST rejected.
	rec := f.do(t, http.MethodPost, "/movies/550/reviews", "", map[string]any{"rating": 4, "text": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/movies/550/reviews", "token-user-1", map[string]any{
		"rating": 4,
		"text":   "Great movie.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created domain.Review
	decodeBody(t, rec, &created)
	if created.UserID != "user-1" || created.Username != "scout" {
		t.Errorf("review author not snapshotted: %+v", created)
	}

	if rec := f.do(t, http.MethodPost, "/movies/550/reviews", "token-user-1", map[string]any{"rating": 6, "text": "x"}); rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range rating status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, http.MethodPost, "/movies/550/reviews", "token-user-1", map[string]any{"rating": 3, "text": "   "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank text status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/movies/550/reviews", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listing struct {
		Items []domain.Review `json:"items"`
	}
	decodeBody(t, rec, &listing)
	if len(listing.Items) != 1 {
		t.Fatalf("listed %d reviews, want 1", len(listing.Items))
	}

	// Deleting someone else's review is forbidden.
	rec = f.do(t, http.MethodDelete, "/movies/550/reviews/"+created.ID, "token-user-2", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/movies/550/reviews/"+created.ID, "token-user-1", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("author delete status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodDelete, "/movies/550/reviews/"+created.ID, "token-user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", rec.Code)
	}
}

func TestReviewListOrdersViewerFirst(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	f.reviews.reviews = []domain.Review{
		{ID: "r-old-own", MovieID: 550, UserID: "user-1", Username: "scout", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "r-new-other", MovieID: 550, UserID: "user-2", Username: "other", CreatedAt: now},
	}

	rec := f.do(t, http.MethodGet, "/movies/550/reviews", "token-user-1", nil)
	var listing struct {
		Items []domain.Review `json:"items"`
	}
	decodeBody(t, rec, &listing)
	if len(listing.Items) != 2 {
		t.Fatalf("listed %d reviews, want 2", len(listing.Items))
	}
	if listing.Items[0].ID != "r-old-own" {
		t.Errorf("viewer's review not first: %+v", listing.Items)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture()

	if rec := f.do(t, http.MethodGet, "/users/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/users/me", "token-user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var profile domain.UserProfile
	decodeBody(t, rec, &profile)
	if profile.Username != "scout" {
		t.Errorf("username = %q, want scout", profile.Username)
	}
}

func TestWatchlistToggle(t *testing.T) {
	f := newFixture()

	// 550 starts in the watchlist; first toggle removes it.
	rec := f.do(t, http.MethodPost, "/users/me/watchlist/550", "token-user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result struct {
		MovieID string `json:"movieId"`
		Saved   bool   `json:"saved"`
	}
	decodeBody(t, rec, &result)
	if result.Saved {
		t.Error("first toggle should remove the movie")
	}

	rec = f.do(t, http.MethodPost, "/users/me/watchlist/550", "token-user-1", nil)
	decodeBody(t, rec, &result)
	if !result.Saved {
		t.Error("second toggle should re-add the movie")
	}

	rec = f.do(t, http.MethodGet, "/users/me/watchlist", "token-user-1", nil)
	var listing struct {
		Items []string `json:"items"`
	}
	decodeBody(t, rec, &listing)
	if len(listing.Items) != 1 || listing.Items[0] != "550" {
		t.Errorf("watchlist = %+v, want [550]", listing.Items)
	}
}

func TestHistoryAppend(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/users/me/history/550", "token-user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// Repeat views append again.
	f.do(t, http.MethodPost, "/users/me/history/550", "token-user-1", nil)

	rec = f.do(t, http.MethodGet, "/users/me/history", "token-user-1", nil)
	var listing struct {
		Items []string `json:"items"`
	}
	decodeBody(t, rec, &listing)
	if len(listing.Items) != 3 {
		t.Errorf("history = %+v, want 3 entries", listing.Items)
	}
}

func TestUnknownUserSubresource(t *testing.T) {
	f := newFixture()
	if rec := f.do(t, http.MethodGet, "/users/me/settings", "token-user-1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
