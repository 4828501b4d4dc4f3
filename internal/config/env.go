package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto cfg, loading a .env file
// from the working directory first when present. Unset variables leave
// the current values in place.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()
	_ = env.Parse(cfg)
}
