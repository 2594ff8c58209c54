package domain

import (
	"sort"
	"time"
)

// Review is a user-authored rating for one movie. Reviews are insert-only;
// a review is never edited, only deleted by its author. Username is a
// snapshot taken at submission time.
type Review struct {
	ID        string    `json:"id"`
	MovieID   int       `json:"movieId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderReviewsForDisplay sorts reviews for the details view: the current
// user's reviews first, then everyone else's, newest first within each
// partition. The sort is stable, so equal timestamps keep their incoming
// relative order. Ordering is display-only and never persisted.
func OrderReviewsForDisplay(reviews []Review, currentUserID string) []Review {
	ordered := append([]Review(nil), reviews...)
	priority := func(r Review) int {
		if currentUserID != "" && r.UserID == currentUserID {
			return 0
		}
		return 1
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := priority(ordered[i]), priority(ordered[j])
		if pi != pj {
			return pi < pj
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})
	return ordered
}
