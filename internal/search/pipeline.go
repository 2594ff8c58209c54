package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

const (
	popularPages      = 12
	classifiedPages   = 6
	shortFreeTextLen  = 3
	shortFreeTextPage = 8
	freeTextPages     = 6

	maxConcurrentPages = 4
)

// Catalog is the subset of the movie catalog the pipeline fetches from.
type Catalog interface {
	Popular(ctx context.Context, page int) ([]domain.MovieSummary, error)
	SearchMovies(ctx context.Context, query string, page int) ([]domain.MovieSummary, error)
	DiscoverByYear(ctx context.Context, year, page int) ([]domain.MovieSummary, error)
	DiscoverByGenre(ctx context.Context, genreID, page int) ([]domain.MovieSummary, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
}

// Service runs the search pipeline: classify, fetch, deduplicate, filter,
// rank. Fetch failures never escape it; a failed run comes back as an
// empty result set with the failure recorded in the branch statuses.
type Service struct {
	catalog Catalog
	logger  *slog.Logger
	blocked []string
	sem     *semaphore.Weighted
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithBlockedKeywords(keywords []string) ServiceOption {
	return func(s *Service) {
		if len(keywords) > 0 {
			s.blocked = keywords
		}
	}
}

func NewService(catalog Catalog, opts ...ServiceOption) *Service {
	s := &Service{
		catalog: catalog,
		logger:  slog.Default(),
		blocked: defaultBlockedKeywords,
		sem:     semaphore.NewWeighted(maxConcurrentPages),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs one full pipeline pass for the query. The returned error is
// reserved for context cancellation; catalog failures surface as an empty
// item list with per-branch error details.
func (s *Service) Search(ctx context.Context, query string, rank domain.RankMode) (domain.SearchResponse, error) {
	startedAt := time.Now()

	genres, err := s.catalog.Genres(ctx)
	if err != nil {
		// Classification degrades to free text without the genre list.
		s.logger.Warn("genre list unavailable", "error", err)
		genres = nil
	}

	classification := Classify(query, genres)

	var (
		branches []branchResult
		response = domain.SearchResponse{
			Query: classification.Query,
			Kind:  classification.Kind,
			Rank:  rank,
		}
	)

	switch classification.Kind {
	case domain.QueryEmpty:
		branches = s.fetchAll(ctx, []branchSpec{{
			name:  "popular",
			pages: popularPages,
			fetch: s.catalog.Popular,
		}})
	case domain.QueryYear:
		branches = s.fetchAll(ctx, []branchSpec{
			{
				name:  "discover",
				pages: classifiedPages,
				fetch: func(ctx context.Context, page int) ([]domain.MovieSummary, error) {
					return s.catalog.DiscoverByYear(ctx, classification.Year, page)
				},
			},
			{
				name:  "title",
				pages: classifiedPages,
				fetch: func(ctx context.Context, page int) ([]domain.MovieSummary, error) {
					return s.catalog.SearchMovies(ctx, classification.Query, page)
				},
			},
		})
	case domain.QueryGenre:
		branches = s.fetchAll(ctx, []branchSpec{
			{
				name:  "discover",
				pages: classifiedPages,
				fetch: func(ctx context.Context, page int) ([]domain.MovieSummary, error) {
					return s.catalog.DiscoverByGenre(ctx, classification.Genre.ID, page)
				},
			},
			{
				name:  "title",
				pages: classifiedPages,
				fetch: func(ctx context.Context, page int) ([]domain.MovieSummary, error) {
					return s.catalog.SearchMovies(ctx, classification.Query, page)
				},
			},
		})
	default:
		pages := freeTextPages
		if len(classification.Query) <= shortFreeTextLen {
			pages = shortFreeTextPage
		}
		branches = s.fetchAll(ctx, []branchSpec{{
			name:  "title",
			pages: pages,
			fetch: func(ctx context.Context, page int) ([]domain.MovieSummary, error) {
				return s.catalog.SearchMovies(ctx, classification.Query, page)
			},
		}})
	}

	if err := ctx.Err(); err != nil {
		return domain.SearchResponse{}, err
	}

	items, failed := mergeBranches(branches, &response)
	if failed {
		// Fetch failures produce an empty result set; the caller sees the
		// branch statuses, never an error.
		response.Items = []domain.MovieSummary{}
		response.TotalItems = 0
		response.ElapsedMS = time.Since(startedAt).Milliseconds()
		metrics.SearchPipelineDuration.WithLabelValues(string(classification.Kind)).Observe(time.Since(startedAt).Seconds())
		return response, nil
	}

	items = Deduplicate(items)
	if classification.Kind != domain.QueryEmpty {
		items = FilterContent(items, s.blocked)
		switch rank {
		case domain.RankByRelevance:
			items = RankByRelevance(items, classification.Query, genres, s.blocked)
		default:
			SortByPopularity(items)
		}
	}

	response.Items = items
	response.TotalItems = len(items)
	response.ElapsedMS = time.Since(startedAt).Milliseconds()
	metrics.SearchPipelineDuration.WithLabelValues(string(classification.Kind)).Observe(time.Since(startedAt).Seconds())
	return response, nil
}

type branchSpec struct {
	name  string
	pages int
	fetch func(ctx context.Context, page int) ([]domain.MovieSummary, error)
}

type branchResult struct {
	status domain.BranchStatus
	items  []domain.MovieSummary
}

func (s *Service) fetchAll(ctx context.Context, specs []branchSpec) []branchResult {
	results := make([]branchResult, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec branchSpec) {
			defer wg.Done()
			results[i] = s.fetchBranch(ctx, spec)
		}(i, spec)
	}
	wg.Wait()
	return results
}

// fetchBranch pulls the branch's pages in parallel, bounded by the shared
// semaphore, and reassembles the results in page order so the catalog's
// ordering survives into deduplication.
func (s *Service) fetchBranch(ctx context.Context, spec branchSpec) branchResult {
	pages := make([][]domain.MovieSummary, spec.pages)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for page := 1; page <= spec.pages; page++ {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			defer s.sem.Release(1)
			items, err := spec.fetch(ctx, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			pages[page-1] = items
		}(page)
	}
	wg.Wait()

	if firstErr != nil {
		s.logger.Warn("branch fetch failed", "branch", spec.name, "pages", spec.pages, "error", firstErr)
		return branchResult{status: domain.BranchStatus{
			Name:  spec.name,
			Pages: spec.pages,
			Error: firstErr.Error(),
		}}
	}

	var items []domain.MovieSummary
	for _, pageItems := range pages {
		items = append(items, pageItems...)
	}
	return branchResult{
		status: domain.BranchStatus{
			Name:  spec.name,
			Pages: spec.pages,
			OK:    true,
			Count: len(items),
		},
		items: items,
	}
}

func mergeBranches(branches []branchResult, response *domain.SearchResponse) ([]domain.MovieSummary, bool) {
	var (
		items  []domain.MovieSummary
		failed bool
	)
	for _, branch := range branches {
		response.Branches = append(response.Branches, branch.status)
		if !branch.status.OK {
			failed = true
			continue
		}
		items = append(items, branch.items...)
	}
	return items, failed
}
