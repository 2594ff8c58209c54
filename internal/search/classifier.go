package search

import (
	"regexp"
	"strconv"
	"strings"

	"moviescout/internal/domain"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Classification is the pipeline's reading of the raw query text. Query
// holds the trimmed, lowercased form used by every later stage.
type Classification struct {
	Kind  domain.QueryKind
	Query string
	Year  int
	Genre domain.Genre
}

// Classify inspects the raw query and decides which fetch strategy applies.
// A four-digit token is a year lookup even when a genre shares its name,
// so the year check runs first. Genre matching is exact on the full query,
// case-insensitive.
func Classify(raw string, genres []domain.Genre) Classification {
	query := strings.ToLower(strings.TrimSpace(raw))
	if query == "" {
		return Classification{Kind: domain.QueryEmpty}
	}

	if yearPattern.MatchString(query) {
		year, err := strconv.Atoi(query)
		if err == nil {
			return Classification{Kind: domain.QueryYear, Query: query, Year: year}
		}
	}

	for _, genre := range genres {
		if strings.EqualFold(genre.Name, query) {
			return Classification{Kind: domain.QueryGenre, Query: query, Genre: genre}
		}
	}

	return Classification{Kind: domain.QueryFreeText, Query: query}
}
