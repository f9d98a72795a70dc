package config

import "github.com/caarlos0/env/v11"

// TestConfig points integration tests at a scratch database. Tests that need
// it skip when TEST_POSTGRES_DSN is unset.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	if err := LoadDotEnv(".env.test"); err != nil {
		return TestConfig{}, err
	}
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
