package config

import "testing"

func TestLoadLogDefaults(t *testing.T) {
	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}
	if cfg.Level != "info" || cfg.MaxMB != 10 || cfg.File != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadLogParse(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_SERVICE", "game-server")
	t.Setenv("LOG_FILE", "/var/log/grain/server.log")
	t.Setenv("LOG_MAX_MB", "64")

	cfg, err := LoadLog()
	if err != nil {
		t.Fatalf("LoadLog() error = %v", err)
	}
	if cfg.Level != "debug" || cfg.Service != "game-server" || cfg.File != "/var/log/grain/server.log" || cfg.MaxMB != 64 {
		t.Fatalf("unexpected log config: %+v", cfg)
	}
}
