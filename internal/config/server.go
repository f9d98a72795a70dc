package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	GameAddr    string `env:"GAME_ADDR" envDefault:":8888"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	RoundDuration       time.Duration `env:"ROUND_DURATION" envDefault:"120s"`
	InviteTTL           time.Duration `env:"INVITE_TTL" envDefault:"30s"`
	InviteSweepInterval time.Duration `env:"INVITE_SWEEP_INTERVAL" envDefault:"5s"`
	HeartbeatTimeout    time.Duration `env:"HEARTBEAT_TIMEOUT" envDefault:"15s"`
	LivenessInterval    time.Duration `env:"LIVENESS_INTERVAL" envDefault:"10s"`
	MatchmakingInterval time.Duration `env:"MATCHMAKING_INTERVAL" envDefault:"1s"`
	JoinRequestCooldown time.Duration `env:"JOIN_REQUEST_COOLDOWN" envDefault:"10s"`

	LeaderboardLimit int `env:"LEADERBOARD_LIMIT" envDefault:"100"`
	HistoryLimit     int `env:"HISTORY_LIMIT" envDefault:"50"`
	RosterLimit      int `env:"ROSTER_LIMIT" envDefault:"500"`
	MaxLineBytes     int `env:"MAX_LINE_BYTES" envDefault:"65536"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
