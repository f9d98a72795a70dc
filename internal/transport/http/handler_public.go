package httptransport

import (
	"net/http"
	"time"

	"grain-arena/internal/lobby"
	"grain-arena/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 500
)

type PublicHandlers struct {
	accounts LeaderboardSource
	lobby    *lobby.Coordinator
}

func NewPublicHandlers(accounts LeaderboardSource, coord *lobby.Coordinator) *PublicHandlers {
	return &PublicHandlers{accounts: accounts, lobby: coord}
}

type leaderboardItem struct {
	Rank       int     `json:"rank"`
	AccountID  string  `json:"account_id"`
	Username   string  `json:"username"`
	TotalScore int     `json:"total_score"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Draws      int     `json:"draws"`
	WinRate    float64 `json:"win_rate"`
}

func (h *PublicHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := ParseLimit(r, defaultLeaderboardLimit, maxLeaderboardLimit)
		items, err := h.accounts.Leaderboard(r.Context(), limit)
		if err != nil {
			metricPublicQueryError.Add(1)
			log.Error().Err(err).Msg("leaderboard query failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{"items": leaderboardItems(items), "limit": limit})
	}
}

func leaderboardItems(accounts []store.Account) []leaderboardItem {
	out := make([]leaderboardItem, 0, len(accounts))
	for i, a := range accounts {
		out = append(out, leaderboardItem{
			Rank:       i + 1,
			AccountID:  a.ID,
			Username:   a.Username,
			TotalScore: a.TotalScore,
			Wins:       a.Wins,
			Losses:     a.Losses,
			Draws:      a.Draws,
			WinRate:    a.WinRate(),
		})
	}
	return out
}

func (h *PublicHandlers) Rooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": h.lobby.Rooms()})
	}
}

type onlineItem struct {
	AccountID     string    `json:"account_id"`
	Username      string    `json:"username"`
	Status        string    `json:"status"`
	RoomID        string    `json:"room_id,omitempty"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

func (h *PublicHandlers) Online() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := h.lobby.Registry().Snapshot()
		out := make([]onlineItem, 0, len(entries))
		for _, e := range entries {
			out = append(out, onlineItem{
				AccountID:     e.AccountID,
				Username:      e.Session.Username(),
				Status:        string(e.Session.Status()),
				RoomID:        e.Session.RoomID(),
				LastHeartbeat: e.Session.LastHeartbeat().UTC(),
			})
		}
		writeJSON(w, map[string]any{"items": out, "count": len(out)})
	}
}
