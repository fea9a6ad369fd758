package config

import "github.com/kelseyhightower/envconfig"

// Relay holds the job-submission service's runtime configuration.
type Relay struct {
	DatabaseURL     string `envconfig:"DATABASE_URL" required:"true"`
	LedgerRPCURL    string `envconfig:"LEDGER_RPC_URL" required:"true"`
	AuthToken       string `envconfig:"API_AUTH_TOKEN"`
	CallerToken     string `envconfig:"CALLER_TOKEN"`
	IndexerURL      string `envconfig:"INDEXER_URL" default:"http://localhost:7401"`
	Port            string `envconfig:"PORT" default:"7402"`
	MinerAuthority  string `envconfig:"MINER_AUTHORITY"`
	BatchWindowSecs int    `envconfig:"BATCH_WINDOW_SECS" default:"10"`
	BatchMaxLegs    int    `envconfig:"BATCH_MAX_LEGS" default:"8"`
	SubmitMaxRetries int   `envconfig:"SUBMIT_MAX_RETRIES" default:"5"`
	RateLimitRPM    int    `envconfig:"RATE_LIMIT_RPM" default:"300"`
	RateLimitBurst  int    `envconfig:"RATE_LIMIT_BURST" default:"30"`
	RecoverSwaps    bool   `envconfig:"RECOVER_SWAPS" default:"false"`
}

// LoadRelay reads Relay from the environment, failing fast on missing
// required fields.
func LoadRelay() (Relay, error) {
	var cfg Relay
	if err := envconfig.Process("", &cfg); err != nil {
		return Relay{}, err
	}
	return cfg, nil
}
