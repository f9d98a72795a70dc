package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/grain?sslmode=disable")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.GameAddr != ":8888" {
		t.Fatalf("GameAddr = %q, want :8888", cfg.GameAddr)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.RoundDuration != 120*time.Second {
		t.Fatalf("RoundDuration = %v, want 2m", cfg.RoundDuration)
	}
	if cfg.InviteTTL != 30*time.Second || cfg.InviteSweepInterval != 5*time.Second {
		t.Fatalf("unexpected invite timings: ttl=%v sweep=%v", cfg.InviteTTL, cfg.InviteSweepInterval)
	}
	if cfg.HeartbeatTimeout != 15*time.Second || cfg.LivenessInterval != 10*time.Second {
		t.Fatalf("unexpected liveness timings: timeout=%v interval=%v", cfg.HeartbeatTimeout, cfg.LivenessInterval)
	}
	if cfg.LeaderboardLimit != 100 || cfg.HistoryLimit != 50 {
		t.Fatalf("unexpected limits: leaderboard=%d history=%d", cfg.LeaderboardLimit, cfg.HistoryLimit)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/grain?sslmode=disable")
	t.Setenv("ROUND_DURATION", "90s")
	t.Setenv("JOIN_REQUEST_COOLDOWN", "1m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ROSTER_LIMIT", "25")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.RoundDuration != 90*time.Second {
		t.Fatalf("RoundDuration = %v, want 90s", cfg.RoundDuration)
	}
	if cfg.JoinRequestCooldown != time.Minute {
		t.Fatalf("JoinRequestCooldown = %v, want 1m", cfg.JoinRequestCooldown)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.RosterLimit != 25 {
		t.Fatalf("RosterLimit = %d, want 25", cfg.RosterLimit)
	}
}
