package config_test

import (
	"strings"
	"testing"
	"time"

	"perpcrank/internal/config"
)

const deploymentYAML = `
program: 9BVcYqEQxyccuwznvxXqDkSJFavvTyheiTYk231T1A8S
group:
  name: mainnet.1
  address: 8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh
  cache: SysvarC1ock11111111111111111111111111111111
  signer: SysvarRent111111111111111111111111111111111
  mngo_bank:
    token: MNGO
    root_bank: So11111111111111111111111111111111111111112
    node_bank: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
    vault: 4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R
tokens:
  - symbol: USDC
    name: USD Coin
    decimals: 6
    mint: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
  - symbol: MNGO
    name: Mango
    decimals: 6
    mint: MangoCzJ36AjZyKwVj3VnYU4GTonjfVEnJmvvWaxLac
markets:
  - symbol: BTC
    name: Bitcoin
    decimals: 6
    quote: USDC
    address: DtEcjPLyD4YtTBB4q8xwFZ9q49W89xZCZtJyrGebi5t8
  - symbol: SOL
    name: Solana
    decimals: 9
    quote: USDC
    address: 2TgaaVoHgnSeEtXvWTx13zQeTf4hYWAMEiMQdcG6EwHi
account:
  address: 11111111111111111111111111111111
  owner: Vote111111111111111111111111111111111111111
  open_orders:
    - Stake11111111111111111111111111111111111111
`

// ============================================================================
// Test: deployment file
// ============================================================================

func TestParseDeployment(t *testing.T) {
	deployment, err := config.ParseDeployment([]byte(deploymentYAML))
	if err != nil {
		t.Fatal(err)
	}

	if deployment.Group.Name != "mainnet.1" {
		t.Errorf("group name: got %q", deployment.Group.Name)
	}
	if got := deployment.Group.LiquidityIncentiveTokenBank.Token.Symbol; got != "MNGO" {
		t.Errorf("incentive bank token: got %q", got)
	}

	if len(deployment.Tokens) != 2 || deployment.Tokens[0].Symbol != "USDC" {
		t.Fatalf("tokens: got %v", deployment.Tokens)
	}

	if len(deployment.Markets) != 2 {
		t.Fatalf("got %d markets, want 2", len(deployment.Markets))
	}
	btc := deployment.Markets[0]
	if btc.Symbol() != "BTC-PERP" {
		t.Errorf("market symbol: got %q", btc.Symbol())
	}
	if btc.Loaded() {
		t.Error("parsed markets must be stubs until their state account is fetched")
	}
	if btc.Quote.Decimals != 6 || deployment.Markets[1].Base.Decimals != 9 {
		t.Error("instrument decimals lost in parsing")
	}

	if len(deployment.Margin.OpenOrdersAddresses) != 1 {
		t.Errorf("open orders: got %d", len(deployment.Margin.OpenOrdersAddresses))
	}
}

func TestParseDeployment_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		keyword string
	}{
		{
			name: "bad program address",
			mutate: func(s string) string {
				return strings.Replace(s, "9BVcYqEQxyccuwznvxXqDkSJFavvTyheiTYk231T1A8S", "not-base58!", 1)
			},
			keyword: "program",
		},
		{
			name:    "unknown quote token",
			mutate:  func(s string) string { return strings.Replace(s, "quote: USDC", "quote: USDT", 1) },
			keyword: "USDT",
		},
		{
			name:    "duplicate market symbol",
			mutate:  func(s string) string { return strings.Replace(s, "symbol: SOL", "symbol: BTC", 1) },
			keyword: "twice",
		},
		{
			name:    "unknown incentive token",
			mutate:  func(s string) string { return strings.Replace(s, "token: MNGO", "token: SRM", 1) },
			keyword: "SRM",
		},
		{
			name: "missing account owner",
			mutate: func(s string) string {
				return strings.Replace(s, "owner: Vote111111111111111111111111111111111111111", "owner: \"\"", 1)
			},
			keyword: "owner",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.ParseDeployment([]byte(tc.mutate(deploymentYAML)))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.keyword) {
				t.Errorf("error %q does not mention %q", err, tc.keyword)
			}
		})
	}
}

// ============================================================================
// Test: environment settings
// ============================================================================

func TestSettingsFromEnv_Defaults(t *testing.T) {
	for _, name := range []string{
		"CRANK_NATS_URL", "CRANK_RPC_URL", "CRANK_KEYPAIR_FILE", "CRANK_DRY_RUN",
		"CRANK_POSTGRES_DSN", "CRANK_MARKETS_FILE",
		"CRANK_METRICS_ADDR", "CRANK_LIMIT", "CRANK_INTERVAL",
		"CRANK_FEED_BUFFER", "CRANK_FUNDING_POLL", "CRANK_FUNDING_WINDOW",
	} {
		t.Setenv(name, "")
	}

	settings := config.SettingsFromEnv()
	if settings.NATSURL != "nats://localhost:4222" {
		t.Errorf("nats url: got %q", settings.NATSURL)
	}
	if settings.CrankLimit != 32 || settings.FeedBuffer != 16 {
		t.Errorf("crank limit / feed buffer: got %d / %d", settings.CrankLimit, settings.FeedBuffer)
	}
	if settings.CrankInterval != 500*time.Millisecond || settings.FundingWindow != time.Hour {
		t.Errorf("intervals: got %s / %s", settings.CrankInterval, settings.FundingWindow)
	}
	if settings.DatabaseURL != "" {
		t.Errorf("database url should default to empty, got %q", settings.DatabaseURL)
	}
	if settings.KeypairFile != "" || settings.DryRun {
		t.Error("submission should default to dry-run with no wallet")
	}
}

func TestSettingsFromEnv_Overrides(t *testing.T) {
	t.Setenv("CRANK_LIMIT", "8")
	t.Setenv("CRANK_INTERVAL", "2s")
	t.Setenv("CRANK_NATS_URL", "nats://broker:4222")

	settings := config.SettingsFromEnv()
	if settings.CrankLimit != 8 {
		t.Errorf("crank limit: got %d", settings.CrankLimit)
	}
	if settings.CrankInterval != 2*time.Second {
		t.Errorf("crank interval: got %s", settings.CrankInterval)
	}
	if settings.NATSURL != "nats://broker:4222" {
		t.Errorf("nats url: got %q", settings.NATSURL)
	}
}
