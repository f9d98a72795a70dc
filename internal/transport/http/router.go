package httptransport

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"grain-arena/internal/lobby"
	"grain-arena/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type LeaderboardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]store.Account, error)
}

type Deps struct {
	DB             Pinger
	Accounts       LeaderboardSource
	Lobby          *lobby.Coordinator
	MaxRecordBytes int
}

func NewRouter(d Deps) *chi.Mux {
	ops := NewOpsHandlers(d.DB)
	public := NewPublicHandlers(d.Accounts, d.Lobby)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", ops.Health())
	r.With(APILogMiddleware()).Get("/ws", WebsocketHandler(d.Lobby, d.MaxRecordBytes))

	r.Route("/api/public", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/leaderboard", public.Leaderboard())
		r.Get("/rooms", public.Rooms())
		r.Get("/online", public.Online())
	})
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
