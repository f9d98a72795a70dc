package config

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp reads the optional dotenv files and then the server and log
// settings from the environment.
func LoadApp(envFiles ...string) (AppConfig, error) {
	if err := LoadDotEnv(envFiles...); err != nil {
		return AppConfig{}, err
	}
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	if logCfg.Service == "" {
		logCfg.Service = "game-server"
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
	}, nil
}
