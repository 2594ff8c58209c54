package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

const defaultDebounce = 300 * time.Millisecond

// Searcher is the pipeline entry point the live searcher drives. Satisfied
// by *Service.
type Searcher interface {
	Search(ctx context.Context, query string, rank domain.RankMode) (domain.SearchResponse, error)
}

// LiveSearcher debounces a stream of query updates and runs at most one
// pipeline pass per settled query. Each accepted update gets a generation
// number; a completed run publishes only while it is still the newest, so
// a slow older request can never overwrite a newer one's results.
type LiveSearcher struct {
	searcher Searcher
	debounce time.Duration
	rank     domain.RankMode
	emit     func(domain.SearchResponse)
	logger   *slog.Logger

	mu            sync.Mutex
	timer         *time.Timer
	generation    uint64
	lastPublished uint64
	closed        bool
}

type LiveOption func(*LiveSearcher)

func WithDebounce(d time.Duration) LiveOption {
	return func(ls *LiveSearcher) {
		if d > 0 {
			ls.debounce = d
		}
	}
}

func WithRankMode(rank domain.RankMode) LiveOption {
	return func(ls *LiveSearcher) {
		ls.rank = rank
	}
}

func WithLiveLogger(logger *slog.Logger) LiveOption {
	return func(ls *LiveSearcher) {
		if logger != nil {
			ls.logger = logger
		}
	}
}

// NewLiveSearcher builds a live searcher that calls emit with each
// published response. emit is called from the run goroutine; callers that
// write to a shared sink must serialize it themselves.
func NewLiveSearcher(searcher Searcher, emit func(domain.SearchResponse), opts ...LiveOption) *LiveSearcher {
	ls := &LiveSearcher{
		searcher: searcher,
		debounce: defaultDebounce,
		rank:     domain.RankByPopularity,
		emit:     emit,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(ls)
	}
	return ls
}

// Update registers a new query. The pending debounce timer, if any, is
// reset; the pipeline runs only once the query has been stable for the
// debounce window.
func (ls *LiveSearcher) Update(ctx context.Context, query string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return
	}

	ls.generation++
	generation := ls.generation

	if ls.timer != nil {
		ls.timer.Stop()
	}
	ls.timer = time.AfterFunc(ls.debounce, func() {
		ls.run(ctx, generation, query)
	})
}

// Close stops any pending run. In-flight runs finish but no longer publish.
func (ls *LiveSearcher) Close() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.closed = true
	if ls.timer != nil {
		ls.timer.Stop()
		ls.timer = nil
	}
}

func (ls *LiveSearcher) run(ctx context.Context, generation uint64, query string) {
	ls.mu.Lock()
	stale := ls.closed || generation != ls.generation
	ls.mu.Unlock()
	if stale {
		metrics.LiveSearchStaleDropped.Inc()
		return
	}

	response, err := ls.searcher.Search(ctx, query, ls.rank)
	if err != nil {
		ls.logger.Warn("live search run failed", "query", query, "error", err)
		return
	}
	response.Generation = generation

	ls.mu.Lock()
	publish := !ls.closed && generation > ls.lastPublished && generation == ls.generation
	if publish {
		ls.lastPublished = generation
	}
	ls.mu.Unlock()

	if !publish {
		metrics.LiveSearchStaleDropped.Inc()
		return
	}
	ls.emit(response)
}
