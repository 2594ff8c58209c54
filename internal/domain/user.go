package domain

import "time"

// UserProfile is the per-user document held in the store. Watchlist is a
// set of catalog movie identifiers kept as strings; History is an ordered
// append-only list of the same. Concurrent toggles from two devices race
// with last-write-wins semantics; the store offers nothing stronger.
type UserProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Watchlist []string  `json:"watchlist"`
	History   []string  `json:"history"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p UserProfile) InWatchlist(movieID string) bool {
	for _, id := range p.Watchlist {
		if id == movieID {
			return true
		}
	}
	return false
}
