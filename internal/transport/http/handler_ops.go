package httptransport

import (
	"encoding/json"
	"net/http"

	"grain-arena/internal/lobby"
	"grain-arena/internal/transport/stream"

	"github.com/rs/zerolog/log"
)

type OpsHandlers struct {
	db Pinger
}

func NewOpsHandlers(db Pinger) *OpsHandlers {
	return &OpsHandlers{db: db}
}

func (h *OpsHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, map[string]any{"ok": true, "db": "up"})
	}
}

// WebsocketHandler upgrades the request and hands the connection to the
// lobby. It returns when the connection closes.
func WebsocketHandler(coord *lobby.Coordinator, maxRecordBytes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := stream.Upgrade(w, r, maxRecordBytes)
		if err != nil {
			metricWSUpgradeErrors.Add(1)
			log.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
			return
		}
		metricWSUpgradesTotal.Add(1)
		coord.ServeConn(r.Context(), conn)
	}
}
