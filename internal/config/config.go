// Package config loads the engine's runtime settings from the environment
// and the deployment description (program, group, tokens, markets) from a
// YAML file.
package config

import (
	"fmt"
	"os"
	"time"
)

// Settings holds the process-level configuration, loaded from environment
// variables.
type Settings struct {
	// NATS
	NATSURL string

	// Solana RPC
	RPCURL string

	// Path to a solana-keygen wallet file. Empty forces dry-run submission.
	KeypairFile string

	// DryRun logs batches instead of submitting them even with a wallet.
	DryRun bool

	// Postgres for funding stats; empty disables the stats store.
	DatabaseURL string

	// Deployment file
	MarketsFile string

	// HTTP
	MetricsAddr string

	// Crank behaviour
	CrankLimit    int
	CrankInterval time.Duration
	FeedBuffer    int

	// Funding
	FundingPoll   time.Duration
	FundingWindow time.Duration
}

func SettingsFromEnv() Settings {
	return Settings{
		NATSURL:       envOrDefault("CRANK_NATS_URL", "nats://localhost:4222"),
		RPCURL:        envOrDefault("CRANK_RPC_URL", "https://api.mainnet-beta.solana.com"),
		KeypairFile:   os.Getenv("CRANK_KEYPAIR_FILE"),
		DryRun:        os.Getenv("CRANK_DRY_RUN") == "1",
		DatabaseURL:   os.Getenv("CRANK_POSTGRES_DSN"),
		MarketsFile:   envOrDefault("CRANK_MARKETS_FILE", "markets.yaml"),
		MetricsAddr:   envOrDefault("CRANK_METRICS_ADDR", ":9091"),
		CrankLimit:    envIntOrDefault("CRANK_LIMIT", 32),
		CrankInterval: envDurationOrDefault("CRANK_INTERVAL", 500*time.Millisecond),
		FeedBuffer:    envIntOrDefault("CRANK_FEED_BUFFER", 16),
		FundingPoll:   envDurationOrDefault("CRANK_FUNDING_POLL", 5*time.Minute),
		FundingWindow: envDurationOrDefault("CRANK_FUNDING_WINDOW", time.Hour),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var i int
	if _, err := fmt.Sscanf(v, "%d", &i); err != nil {
		return defaultVal
	}
	return i
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
