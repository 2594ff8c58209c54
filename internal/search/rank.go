package search

import (
	"sort"
	"strings"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

// SortByPopularity orders items by popularity descending. The sort is
// stable, so equally popular entries keep their first-seen order.
func SortByPopularity(items []domain.MovieSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})
}

type scoredMovie struct {
	movie domain.MovieSummary
	score float64
}

// RankByRelevance scores each item against the query and returns the
// matches ordered by score descending, zero-score entries removed. Title
// prefix matches score highest, then substring matches, with bonuses for
// exact titles and word-boundary hits. Genre names and release dates
// containing the query add to the score, and a capped fraction of the
// popularity breaks ties between textually equal matches. A blocked
// keyword in the title zeroes the score outright.
func RankByRelevance(items []domain.MovieSummary, query string, genres []domain.Genre, blocked []string) []domain.MovieSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	genreNames := make(map[int]string, len(genres))
	for _, genre := range genres {
		genreNames[genre.ID] = strings.ToLower(genre.Name)
	}

	scored := make([]scoredMovie, 0, len(items))
	for _, item := range items {
		score := relevanceScore(item, query, genreNames, blocked)
		if score <= 0 {
			metrics.SearchResultsDropped.WithLabelValues("rank").Inc()
			continue
		}
		scored = append(scored, scoredMovie{movie: item, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranked := make([]domain.MovieSummary, len(scored))
	for i, s := range scored {
		ranked[i] = s.movie
	}
	return ranked
}

func relevanceScore(item domain.MovieSummary, query string, genreNames map[int]string, blocked []string) float64 {
	title := strings.ToLower(item.Title)
	for _, keyword := range blocked {
		if keyword != "" && strings.Contains(title, keyword) {
			return 0
		}
	}

	var score float64
	switch {
	case strings.HasPrefix(title, query):
		score += 5
	case strings.Contains(title, query):
		score += 3
	}
	if title == query {
		score += 2
	}
	if containsWord(title, query) {
		score += 1
	}

	for _, genreID := range item.GenreIDs {
		if name, ok := genreNames[genreID]; ok && strings.Contains(name, query) {
			score += 1
		}
	}

	if item.ReleaseDate != "" && strings.Contains(item.ReleaseDate, query) {
		score += 2
	}

	if score > 0 {
		bonus := item.Popularity / 100
		if bonus > 3 {
			bonus = 3
		}
		score += bonus
	}
	return score
}

// containsWord reports whether query appears in text delimited by
// non-alphanumeric characters on both sides.
func containsWord(text, query string) bool {
	if query == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(text[start:], query)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(query)
		leftOK := idx == 0 || !isAlphanumeric(text[idx-1])
		rightOK := end == len(text) || !isAlphanumeric(text[end])
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
		if start >= len(text) {
			return false
		}
	}
}

func isAlphanumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
