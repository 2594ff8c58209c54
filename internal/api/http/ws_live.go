package apihttp

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"moviescout/internal/domain"
	"moviescout/internal/search"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 4 << 10
	wsPongTimeout  = 90 * time.Second
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type liveQueryFrame struct {
	Query string `json:"query"`
}

// handleSearchLive upgrades to a WebSocket and runs a debounced search
// session. The client sends {"query": "..."} frames as the user types; the
// server pushes one response frame per settled query and silently drops
// results overtaken by a newer query.
func (s *Server) handleSearchLive(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search/live" {
		http.NotFound(w, r)
		return
	}
	if s.search == nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "search service is not configured")
		return
	}

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("live search upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	var writeMu sync.Mutex
	emit := func(response domain.SearchResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(response); err != nil {
			s.logger.Debug("live search write failed", slog.String("error", err.Error()))
		}
	}

	rank := domain.NormalizeRankMode(r.URL.Query().Get("rank"))
	live := search.NewLiveSearcher(s.search, emit,
		search.WithDebounce(s.debounce),
		search.WithRankMode(rank),
		search.WithLiveLogger(s.logger),
	)
	defer live.Close()

	s.logger.Debug("live search session started", slog.String("clientIP", clientIP(r)))

	for {
		var frame liveQueryFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("live search session closed", slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		if len(frame.Query) > maxQueryLength {
			frame.Query = frame.Query[:maxQueryLength]
		}
		live.Update(r.Context(), frame.Query)
	}
}
