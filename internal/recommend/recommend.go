package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"

	"moviescout/internal/domain"
)

// Catalog is the discover surface recommendations draw from.
type Catalog interface {
	DiscoverByGenre(ctx context.Context, genreID, page int) ([]domain.MovieSummary, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
}

// Service picks a random movie from the most popular page of a genre.
type Service struct {
	catalog Catalog
	pick    func(n int) int
}

type Option func(*Service)

func withPicker(pick func(n int) int) Option {
	return func(s *Service) {
		s.pick = pick
	}
}

func NewService(catalog Catalog, opts ...Option) *Service {
	s := &Service{
		catalog: catalog,
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Random returns one movie drawn uniformly from the genre's first discover
// page. An unknown or empty genre yields domain.ErrNotFound.
func (s *Service) Random(ctx context.Context, genreID int) (domain.MovieSummary, error) {
	if !s.knownGenre(ctx, genreID) {
		return domain.MovieSummary{}, fmt.Errorf("%w: genre %d", domain.ErrNotFound, genreID)
	}

	items, err := s.catalog.DiscoverByGenre(ctx, genreID, 1)
	if err != nil {
		return domain.MovieSummary{}, err
	}
	if len(items) == 0 {
		return domain.MovieSummary{}, fmt.Errorf("%w: no movies in genre %d", domain.ErrNotFound, genreID)
	}
	return items[s.pick(len(items))], nil
}

func (s *Service) knownGenre(ctx context.Context, genreID int) bool {
	genres, err := s.catalog.Genres(ctx)
	if err != nil {
		// Without the genre list, let the discover call decide.
		return true
	}
	for _, genre := range genres {
		if genre.ID == genreID {
			return true
		}
	}
	return false
}
