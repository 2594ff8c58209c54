package search

import (
	"strings"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

// defaultBlockedKeywords are dropped from results when they appear as a
// case-insensitive substring of a title or overview.
var defaultBlockedKeywords = []string{
	"xxx",
	"porn",
	"erotic",
	"hentai",
	"softcore",
}

// FilterContent removes entries unsuitable for display: no poster image,
// a blank overview, or a blocked keyword in the title or overview.
// Whitespace-only overviews count as blank.
func FilterContent(items []domain.MovieSummary, blocked []string) []domain.MovieSummary {
	kept := make([]domain.MovieSummary, 0, len(items))
	for _, item := range items {
		if item.PosterPath == "" || strings.TrimSpace(item.Overview) == "" {
			metrics.SearchResultsDropped.WithLabelValues("filter").Inc()
			continue
		}
		if containsBlocked(item, blocked) {
			metrics.SearchResultsDropped.WithLabelValues("filter").Inc()
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func containsBlocked(item domain.MovieSummary, blocked []string) bool {
	title := strings.ToLower(item.Title)
	overview := strings.ToLower(item.Overview)
	for _, keyword := range blocked {
		if keyword == "" {
			continue
		}
		if strings.Contains(title, keyword) || strings.Contains(overview, keyword) {
			return true
		}
	}
	return false
}

// Deduplicate keeps the first occurrence of each movie id and preserves
// the incoming order otherwise.
func Deduplicate(items []domain.MovieSummary) []domain.MovieSummary {
	seen := make(map[int]struct{}, len(items))
	unique := make([]domain.MovieSummary, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			metrics.SearchResultsDropped.WithLabelValues("dedupe").Inc()
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
