package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"perpcrank/internal/config"
	"perpcrank/internal/crank"
	"perpcrank/internal/executor"
	"perpcrank/internal/feed"
	"perpcrank/internal/instruction"
	"perpcrank/internal/market"
	"perpcrank/internal/observability"
	"perpcrank/internal/stats"
	"perpcrank/internal/token"
)

func main() {
	logger := observability.NewLogger("main")
	logger.Info().Msg("perpcrank starting")

	settings := config.SettingsFromEnv()

	deployment, err := config.LoadDeployment(settings.MarketsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading deployment")
	}
	logger.Info().
		Str("group", deployment.Group.Name).
		Int("markets", len(deployment.Markets)).
		Msg("deployment loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Solana RPC + market state ---
	rpcClient := rpc.New(settings.RPCURL)
	mngo := deployment.Group.LiquidityIncentiveTokenBank.Token

	markets := make([]market.PerpMarket, 0, len(deployment.Markets))
	for _, stub := range deployment.Markets {
		loaded, err := executor.FetchMarket(ctx, rpcClient, stub, mngo)
		if err != nil {
			logger.Fatal().Err(err).Str("market", stub.Symbol()).Msg("loading market state")
		}
		logger.Info().
			Str("market", loaded.Symbol()).
			Str("lot_size", loaded.Converter.LotSize().String()).
			Str("tick_size", loaded.Converter.TickSize().String()).
			Msg("market loaded")
		markets = append(markets, loaded)
	}

	// --- Batch submission ---
	var submitter instruction.Executor
	if settings.DryRun || settings.KeypairFile == "" {
		logger.Warn().Msg("no signing key configured, running dry")
		submitter = executor.DryRunExecutor{Logger: observability.NewLogger("executor")}
	} else {
		wallet, err := solana.PrivateKeyFromSolanaKeygenFile(settings.KeypairFile)
		if err != nil {
			logger.Fatal().Err(err).Msg("reading wallet")
		}
		logger.Info().Str("wallet", wallet.PublicKey().String()).Msg("wallet loaded")
		submitter = executor.NewTransactionExecutor(observability.NewLogger("executor"), rpcClient, wallet)
	}

	// --- Funding stats ---
	var source stats.Source
	if settings.DatabaseURL != "" {
		store, err := stats.OpenStore(ctx, settings.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("opening stats store")
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ensuring stats schema")
		}
		logger.Info().Msg("postgres stats store connected")
		source = store
	} else {
		logger.Info().Msg("no postgres configured, keeping funding stats in memory")
		source = stats.NewMemorySource()
	}

	// --- NATS ---
	conn, err := feed.ConnectNATS(observability.NewLogger("feed"), settings.NATSURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to nats")
	}
	defer conn.Close()
	logger.Info().Str("url", settings.NATSURL).Msg("nats connected")

	// --- Per-market wiring ---
	errChan := make(chan error, len(markets)+1)
	var feeds []*feed.QueueFeed

	for _, perpMarket := range markets {
		queueFeed, err := feed.Subscribe(observability.NewLogger("feed"), metrics, conn, perpMarket.Symbol(), settings.FeedBuffer)
		if err != nil {
			logger.Fatal().Err(err).Str("market", perpMarket.Symbol()).Msg("subscribing to feed")
		}
		feeds = append(feeds, queueFeed)

		runner, err := crank.NewRunner(observability.NewLogger("crank"), metrics, crank.RunnerConfig{
			Group:    deployment.Group,
			Margin:   deployment.Margin,
			Market:   perpMarket,
			Executor: submitter,
			Updates:  queueFeed.Updates(),
			Interval: settings.CrankInterval,
			Limit:    settings.CrankLimit,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("market", perpMarket.Symbol()).Msg("building runner")
		}
		go func(symbol string) {
			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("runner %s: %w", symbol, err)
			}
		}(perpMarket.Symbol())

		recorder, err := crank.NewFundingRecorder(observability.NewLogger("funding"), metrics, source, perpMarket, settings.FundingWindow)
		if err != nil {
			logger.Fatal().Err(err).Str("market", perpMarket.Symbol()).Msg("building funding recorder")
		}
		price := newOraclePrice()
		if _, err := conn.Subscribe(feed.PriceSubject(perpMarket.Symbol()), price.handle); err != nil {
			logger.Fatal().Err(err).Str("market", perpMarket.Symbol()).Msg("subscribing to oracle prices")
		}
		go runFundingLoop(ctx, observability.NewLogger("funding"), rpcClient, mngo, perpMarket, recorder, price, settings.FundingPoll)
	}

	// --- Metrics and probes ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", healthChecker.LivenessHandler)
		mux.HandleFunc("/readyz", healthChecker.ReadinessHandler)
		server := &http.Server{Addr: settings.MetricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			server.Shutdown(shutCtx)
		}()
		logger.Info().Str("addr", settings.MetricsAddr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	healthChecker.SetReady(true)
	logger.Info().
		Int("markets", len(markets)).
		Int("crank_limit", settings.CrankLimit).
		Msg("perpcrank ready")

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errChan:
		logger.Error().Err(err).Msg("fatal error, shutting down")
	}

	healthChecker.SetReady(false)
	cancel()
	for _, queueFeed := range feeds {
		queueFeed.Close()
	}
	logger.Info().Msg("perpcrank shutdown complete")
}

// oraclePrice holds the latest observed oracle price for one market.
type oraclePrice struct {
	mu    sync.RWMutex
	value decimal.Decimal
	known bool
}

func newOraclePrice() *oraclePrice {
	return &oraclePrice{}
}

func (p *oraclePrice) handle(msg *nats.Msg) {
	value, err := decimal.NewFromString(strings.TrimSpace(string(msg.Data)))
	if err != nil || value.Sign() <= 0 {
		return
	}
	p.mu.Lock()
	p.value = value
	p.known = true
	p.mu.Unlock()
}

func (p *oraclePrice) get() (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.known
}

// runFundingLoop periodically re-fetches the market state and records a
// funding snapshot with the latest oracle price, then derives the current
// rate once enough history exists.
func runFundingLoop(ctx context.Context, logger zerolog.Logger, client *rpc.Client, mngo token.Token, perpMarket market.PerpMarket, recorder *crank.FundingRecorder, price *oraclePrice, poll time.Duration) {
	logger = logger.With().Str("market", perpMarket.Symbol()).Logger()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		details, err := executor.FetchMarketDetails(ctx, client, perpMarket, mngo)
		if err != nil {
			logger.Error().Err(err).Msg("fetching market state")
			continue
		}
		oracle, known := price.get()
		if !known {
			logger.Debug().Msg("no oracle price observed yet, skipping funding snapshot")
			continue
		}
		now := time.Now()
		if err := recorder.Record(ctx, details, oracle, now); err != nil {
			logger.Error().Err(err).Msg("recording funding snapshot")
			continue
		}
		if _, err := recorder.CurrentRate(ctx, now); err != nil {
			logger.Debug().Err(err).Msg("funding rate not derivable yet")
		}
	}
}
