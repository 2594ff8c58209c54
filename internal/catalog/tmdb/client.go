package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

const (
	defaultBaseURL   = "https://api.themoviedb.org/3"
	defaultLanguage  = "en-US"
	redisCachePrefix = "moviescout:tmdb:"
	maxResponseBytes = 1 << 20
)

type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration

	genreMu sync.RWMutex
	genres  []domain.Genre
}

type Config struct {
	APIKey   string
	BaseURL  string
	Language string
	Client   *http.Client
	Redis    *redis.Client
	CacheTTL time.Duration
}

type pageResponse struct {
	Page    int                   `json:"page"`
	Results []domain.MovieSummary `json:"results"`
}

type genreListResponse struct {
	Genres []domain.Genre `json:"genres"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = defaultLanguage
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 6 * time.Hour
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Popular returns one page of the catalog's popular-movies list.
func (c *Client) Popular(ctx context.Context, page int) ([]domain.MovieSummary, error) {
	params := c.baseParams()
	params.Set("page", strconv.Itoa(pageOrFirst(page)))
	return c.fetchPage(ctx, "popular", "/movie/popular", params)
}

// SearchMovies returns one page of title-search results for query.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) ([]domain.MovieSummary, error) {
	params := c.baseParams()
	params.Set("query", strings.TrimSpace(query))
	params.Set("page", strconv.Itoa(pageOrFirst(page)))
	params.Set("include_adult", "false")
	return c.fetchPage(ctx, "search", "/search/movie", params)
}

// DiscoverByYear returns one page of movies whose primary release year
// matches, most popular first.
func (c *Client) DiscoverByYear(ctx context.Context, year, page int) ([]domain.MovieSummary, error) {
	params := c.baseParams()
	params.Set("primary_release_year", strconv.Itoa(year))
	params.Set("page", strconv.Itoa(pageOrFirst(page)))
	params.Set("include_adult", "false")
	params.Set("sort_by", "popularity.desc")
	return c.fetchPage(ctx, "discover", "/discover/movie", params)
}

// DiscoverByGenre returns one page of movies tagged with the genre id,
// most popular first.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID, page int) ([]domain.MovieSummary, error) {
	params := c.baseParams()
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("page", strconv.Itoa(pageOrFirst(page)))
	params.Set("include_adult", "false")
	params.Set("sort_by", "popularity.desc")
	return c.fetchPage(ctx, "discover", "/discover/movie", params)
}

// Genres returns the catalog's genre list. The list is effectively static
// for a session: it is memoized in-process after the first successful fetch
// and shared through Redis across restarts when available.
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	c.genreMu.RLock()
	cached := c.genres
	c.genreMu.RUnlock()
	if len(cached) > 0 {
		return cached, nil
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisCachePrefix+"genres:"+c.language).Bytes()
		if err == nil {
			var genres []domain.Genre
			if json.Unmarshal(data, &genres) == nil && len(genres) > 0 {
				metrics.CacheHitsTotal.Inc()
				c.storeGenres(genres)
				return genres, nil
			}
		}
		metrics.CacheMissesTotal.Inc()
	}

	var response genreListResponse
	if err := c.getJSON(ctx, "genres", "/genre/movie/list", c.baseParams(), &response); err != nil {
		return nil, err
	}
	c.storeGenres(response.Genres)

	if c.redis != nil {
		if data, err := json.Marshal(response.Genres); err == nil {
			_ = c.redis.Set(ctx, redisCachePrefix+"genres:"+c.language, data, c.cacheTTL).Err()
		}
	}
	return response.Genres, nil
}

// Detail fetches the full record for one movie, with Redis caching.
func (c *Client) Detail(ctx context.Context, id int) (domain.MovieDetail, error) {
	cacheKey := fmt.Sprintf("%sdetail:%d:%s", redisCachePrefix, id, c.language)
	if c.redis != nil {
		data, err := c.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var detail domain.MovieDetail
			if json.Unmarshal(data, &detail) == nil && detail.ID != 0 {
				metrics.CacheHitsTotal.Inc()
				return detail, nil
			}
		}
		metrics.CacheMissesTotal.Inc()
	}

	var detail domain.MovieDetail
	if err := c.getJSON(ctx, "detail", "/movie/"+strconv.Itoa(id), c.baseParams(), &detail); err != nil {
		return domain.MovieDetail{}, err
	}

	if c.redis != nil {
		if data, err := json.Marshal(detail); err == nil {
			_ = c.redis.Set(ctx, cacheKey, data, c.cacheTTL).Err()
		}
	}
	return detail, nil
}

// Credits fetches the cast and crew list for one movie.
func (c *Client) Credits(ctx context.Context, id int) (domain.Credits, error) {
	var credits domain.Credits
	if err := c.getJSON(ctx, "credits", "/movie/"+strconv.Itoa(id)+"/credits", c.baseParams(), &credits); err != nil {
		return domain.Credits{}, err
	}
	return credits, nil
}

func (c *Client) storeGenres(genres []domain.Genre) {
	if len(genres) == 0 {
		return
	}
	c.genreMu.Lock()
	c.genres = genres
	c.genreMu.Unlock()
}

func (c *Client) baseParams() url.Values {
	return url.Values{
		"api_key":  {c.apiKey},
		"language": {c.language},
	}
}

func (c *Client) fetchPage(ctx context.Context, endpoint, path string, params url.Values) ([]domain.MovieSummary, error) {
	var response pageResponse
	if err := c.getJSON(ctx, endpoint, path, params, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	startedAt := time.Now()
	err := c.doGetJSON(ctx, path, params, out)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(endpoint, status).Inc()
	return err
}

func (c *Client) doGetJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tmdb HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func pageOrFirst(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
