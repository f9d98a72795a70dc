package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	GameAddr string `env:"GAME_ADDR" envDefault:"localhost:8888"`
	Username string `env:"BOT_USERNAME" envDefault:"dumb_bot"`
	Password string `env:"BOT_PASSWORD" envDefault:"dumb-bot-password"`
	Email    string `env:"BOT_EMAIL"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
