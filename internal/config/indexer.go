package config

import "github.com/kelseyhightower/envconfig"

// Indexer holds the accumulator service's runtime configuration.
// DatabaseURL is required and fails startup if unset; AuthToken has no
// default, and leaving it empty disables admin auth. Non-secret knobs
// fall back to sane defaults.
type Indexer struct {
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	AuthToken    string `envconfig:"API_AUTH_TOKEN"`
	Port         string `envconfig:"PORT" default:"7401"`
	TreeHeight   uint32 `envconfig:"TREE_HEIGHT" default:"24"`
	RateLimitRPM int    `envconfig:"RATE_LIMIT_RPM" default:"600"`
	RateLimitBurst int  `envconfig:"RATE_LIMIT_BURST" default:"60"`
}

// LoadIndexer reads Indexer from the environment, failing fast on
// missing required fields.
func LoadIndexer() (Indexer, error) {
	var cfg Indexer
	if err := envconfig.Process("", &cfg); err != nil {
		return Indexer{}, err
	}
	return cfg, nil
}
