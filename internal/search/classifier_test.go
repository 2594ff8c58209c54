package search

import (
	"testing"

	"moviescout/internal/domain"
)

func TestClassify(t *testing.T) {
	genres := []domain.Genre{
		{ID: 28, Name: "Action"},
		{ID: 35, Name: "Comedy"},
		{ID: 878, Name: "Science Fiction"},
	}

	tests := []struct {
		name      string
		raw       string
		wantKind  domain.QueryKind
		wantQuery string
		wantYear  int
		wantGenre int
	}{
		{name: "empty", raw: "", wantKind: domain.QueryEmpty},
		{name: "whitespace only", raw: "   ", wantKind: domain.QueryEmpty},
		{name: "four digit year", raw: "2014", wantKind: domain.QueryYear, wantQuery: "2014", wantYear: 2014},
		{name: "year with padding", raw: " 1999 ", wantKind: domain.QueryYear, wantQuery: "1999", wantYear: 1999},
		{name: "genre exact", raw: "Action", wantKind: domain.QueryGenre, wantQuery: "action", wantGenre: 28},
		{name: "genre case insensitive", raw: "cOmEdY", wantKind: domain.QueryGenre, wantQuery: "comedy", wantGenre: 35},
		{name: "multi word genre", raw: "science fiction", wantKind: domain.QueryGenre, wantQuery: "science fiction", wantGenre: 878},
		{name: "genre substring is free text", raw: "act", wantKind: domain.QueryFreeText, wantQuery: "act"},
		{name: "free text", raw: "Inception", wantKind: domain.QueryFreeText, wantQuery: "inception"},
		{name: "five digits", raw: "20144", wantKind: domain.QueryFreeText, wantQuery: "20144"},
		{name: "three digits", raw: "201", wantKind: domain.QueryFreeText, wantQuery: "201"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.raw, genres)
			if got.Kind != tc.wantKind {
				t.Fatalf("kind = %q, want %q", got.Kind, tc.wantKind)
			}
			if got.Query != tc.wantQuery {
				t.Errorf("query = %q, want %q", got.Query, tc.wantQuery)
			}
			if got.Year != tc.wantYear {
				t.Errorf("year = %d, want %d", got.Year, tc.wantYear)
			}
			if got.Genre.ID != tc.wantGenre {
				t.Errorf("genre id = %d, want %d", got.Genre.ID, tc.wantGenre)
			}
		})
	}
}

func TestClassifyYearBeatsGenre(t *testing.T) {
	// A genre literally named after a year must still classify as a year
	// lookup.
	genres := []domain.Genre{{ID: 1, Name: "1984"}}
	got := Classify("1984", genres)
	if got.Kind != domain.QueryYear {
		t.Fatalf("kind = %q, want %q", got.Kind, domain.QueryYear)
	}
	if got.Year != 1984 {
		t.Fatalf("year = %d, want 1984", got.Year)
	}
}
