package domain

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// MovieSummary is one catalog entry as returned by list/search/discover
// endpoints. Field tags match the catalog's JSON so responses decode
// directly into it.
type MovieSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	Adult       bool    `json:"adult,omitempty"`
}

func (m MovieSummary) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return posterBaseURL + m.PosterPath
}

// Year returns the release year, or 0 when the release date is absent
// or malformed.
func (m MovieSummary) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, c := range m.ReleaseDate[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		year = year*10 + int(c-'0')
	}
	return year
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail is the full per-movie record from the catalog detail endpoint.
type MovieDetail struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Runtime     int     `json:"runtime,omitempty"`
	Genres      []Genre `json:"genres,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	Adult       bool    `json:"adult,omitempty"`
}

type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order"`
}

type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job,omitempty"`
	Department string `json:"department,omitempty"`
}

type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast,omitempty"`
	Crew []CrewMember `json:"crew,omitempty"`
}

// QueryKind is the search pipeline's classification of the raw query text.
type QueryKind string

const (
	QueryEmpty    QueryKind = "empty"
	QueryYear     QueryKind = "year"
	QueryGenre    QueryKind = "genre"
	QueryFreeText QueryKind = "freeText"
)

// RankMode selects the ordering applied to filtered search results.
// Popularity is the authoritative policy; relevance is a retained
// secondary mode.
type RankMode string

const (
	RankByPopularity RankMode = "popularity"
	RankByRelevance  RankMode = "relevance"
)

func NormalizeRankMode(raw string) RankMode {
	switch RankMode(raw) {
	case RankByRelevance:
		return RankByRelevance
	default:
		return RankByPopularity
	}
}

// BranchStatus reports the outcome of one fetch branch (popular list,
// discover, or title search) within a single pipeline run.
type BranchStatus struct {
	Name  string `json:"name"`
	Pages int    `json:"pages"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type SearchResponse struct {
	Query      string         `json:"query"`
	Kind       QueryKind      `json:"kind"`
	Rank       RankMode       `json:"rank"`
	Items      []MovieSummary `json:"items"`
	Branches   []BranchStatus `json:"branches,omitempty"`
	TotalItems int            `json:"totalItems"`
	ElapsedMS  int64          `json:"elapsedMs"`
	Generation uint64         `json:"generation,omitempty"`
}
