package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"grain-arena/internal/accountcache"
	"grain-arena/internal/config"
	"grain-arena/internal/lobby"
	"grain-arena/internal/logging"
	"grain-arena/internal/store"
	httptransport "grain-arena/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	app, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(app.Log)
	cfg := app.Server

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	var persist lobby.Persistence = st
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = accountcache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis init failed")
		}
		defer rdb.Close()
		persist = accountcache.New(st, rdb, cfg.CacheTTL)
		log.Info().Dur("ttl", cfg.CacheTTL).Msg("account cache enabled")
	}

	coord := lobby.NewCoordinator(persist, lobbyOptions(cfg))
	if err := coord.StartJanitor(ctx, janitorIntervals(cfg)); err != nil {
		log.Fatal().Err(err).Msg("janitor start failed")
	}

	ln, err := net.Listen("tcp", cfg.GameAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GameAddr).Msg("game listen failed")
	}
	gameDone := make(chan error, 1)
	go func() { gameDone <- coord.Serve(ctx, ln) }()

	r := httptransport.NewRouter(httptransport.Deps{
		DB:             st,
		Accounts:       persist,
		Lobby:          coord,
		MaxRecordBytes: cfg.MaxLineBytes,
	})
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	httpDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		httpDone <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-gameDone:
		log.Error().Err(err).Msg("game listener stopped")
	case err := <-httpDone:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
		}
	}
	stop()

	coord.CloseAll("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func lobbyOptions(cfg config.ServerConfig) lobby.Options {
	return lobby.Options{
		RoundDuration:       cfg.RoundDuration,
		InviteTTL:           cfg.InviteTTL,
		HeartbeatTimeout:    cfg.HeartbeatTimeout,
		JoinRequestCooldown: cfg.JoinRequestCooldown,
		LeaderboardLimit:    cfg.LeaderboardLimit,
		HistoryLimit:        cfg.HistoryLimit,
		RosterLimit:         cfg.RosterLimit,
		MaxRecordBytes:      cfg.MaxLineBytes,
	}
}

func janitorIntervals(cfg config.ServerConfig) lobby.JanitorIntervals {
	return lobby.JanitorIntervals{
		Matchmaking: cfg.MatchmakingInterval,
		Invitations: cfg.InviteSweepInterval,
		Liveness:    cfg.LivenessInterval,
	}
}
