package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays YELPCAMP_* environment variables onto config. Variables
// that are not set leave the current value untouched. Malformed values panic,
// matching the JSON and flag parsers.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
