package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/textguard/textguard/internal/adapter/inbound/admin"
	inboundhttp "github.com/textguard/textguard/internal/adapter/inbound/http"
	"github.com/textguard/textguard/internal/adapter/outbound/analyzer"
	"github.com/textguard/textguard/internal/adapter/outbound/cache"
	"github.com/textguard/textguard/internal/adapter/outbound/cel"
	"github.com/textguard/textguard/internal/adapter/outbound/embedding"
	"github.com/textguard/textguard/internal/adapter/outbound/synonym"
	"github.com/textguard/textguard/internal/adapter/outbound/toxicity"
	"github.com/textguard/textguard/internal/config"
	"github.com/textguard/textguard/internal/domain/adminauth"
	"github.com/textguard/textguard/internal/domain/guard"
	"github.com/textguard/textguard/internal/observability"
	"github.com/textguard/textguard/internal/port/outbound"
	"github.com/textguard/textguard/internal/service"
)

var enableTracing bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the textguard HTTP server: loads the rule document, wires the
matcher pipeline, result cache, and toxicity fallback, and serves
/v1/check, /v1/batch_check, /rules, /health, /metrics, and /admin/reload
(authenticated only when an admin key hash is configured). The rule
document is also watched for out-of-band edits: a periodic mtime poll
(rules.poll_interval, default 30s) and, on POSIX, SIGHUP both trigger an
mtime-gated reload without requiring an API call, unlike /admin/reload,
which always forces a rebuild.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&enableTracing, "tracing", false, "export OpenTelemetry traces and metrics to stdout")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, "textguard", Version, enableTracing)
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutCtx); err != nil {
			logger.Warn("observability shutdown failed", "error", err)
		}
	}()

	synonymSource := synonym.New()
	analyzerAdapter := analyzer.New()

	var embeddingOracle outbound.EmbeddingOracle
	if cfg.Embedding.Endpoint != "" {
		embeddingTimeout, perr := time.ParseDuration(cfg.Embedding.Timeout)
		if perr != nil {
			embeddingTimeout = 5 * time.Second
		}
		embeddingOracle = embedding.New(cfg.Embedding.Endpoint, cfg.Embedding.Model, embeddingTimeout)
		logger.Info("semantic stage enabled", "endpoint", cfg.Embedding.Endpoint, "model", cfg.Embedding.Model)
	} else {
		logger.Info("semantic stage disabled: no embedding.endpoint configured")
	}

	var toxicityOracle outbound.ToxicityOracle
	if cfg.Classifier.URL != "" {
		classifierTimeout, perr := time.ParseDuration(cfg.Classifier.Timeout)
		if perr != nil {
			classifierTimeout = 5 * time.Second
		}
		toxicityOracle = toxicity.New(cfg.Classifier.URL, classifierTimeout)
		logger.Info("toxicity fallback enabled", "url", cfg.Classifier.URL)
	} else {
		logger.Info("toxicity fallback disabled: no classifier.url configured")
	}

	compiler := guard.NewCompiler(synonymSource, embeddingOracle, logger)
	engine, err := guard.NewEngine(ctx, cfg.Rules.Path, compiler, logger)
	if err != nil {
		// NewEngine still returns a usable, empty-snapshot Engine on a
		// load failure; log and keep serving rather than refusing to start.
		logger.Warn("rule document did not load cleanly at startup", "path", cfg.Rules.Path, "error", err)
	}
	matcher := guard.NewMatcher(analyzerAdapter, embeddingOracle, logger)

	pollInterval, perr := time.ParseDuration(cfg.Rules.PollInterval)
	if perr != nil {
		pollInterval = 30 * time.Second
	}
	go watchRuleDocument(ctx, engine, pollInterval, logger)

	resultCache, stopCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to configure result cache: %w", err)
	}
	defer stopCache()

	gateEvaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	pool := service.NewWorkerPool(ctx, cfg.Workers.MaxWorkers, logger)
	defer pool.Stop()

	cacheTTL, err := time.ParseDuration(cfg.Cache.Expiry)
	if err != nil {
		cacheTTL = 300 * time.Second
	}

	evaluator := service.NewEvaluator(engine, matcher, resultCache, toxicityOracle, gateEvaluator, pool, cacheTTL, logger)

	var verifier *adminauth.Verifier
	if cfg.Admin.KeyHash != "" {
		verifier = adminauth.NewVerifier(cfg.Admin.KeyHash)
		logger.Info("admin endpoint authenticated")
	} else {
		logger.Warn("admin endpoint unauthenticated: no admin.key_hash configured")
	}
	reloadHandler := admin.NewReloadHandler(engine, verifier, logger)

	healthChecker := inboundhttp.NewHealthChecker(engine, resultCache, Version)
	rulesHandler := inboundhttp.NewRulesHandler(engine, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	transport := inboundhttp.NewHTTPTransport(evaluator,
		inboundhttp.WithAddr(addr),
		inboundhttp.WithLogger(logger),
		inboundhttp.WithRulesHandler(rulesHandler),
		inboundhttp.WithHealthChecker(healthChecker),
		inboundhttp.WithExtraHandler(reloadHandler.Handler()),
	)

	logger.Info("textguard starting",
		"version", Version,
		"addr", addr,
		"rules_path", cfg.Rules.Path,
		"rules", len(engine.RuleSummaries()),
		"cache_backend", cfg.Cache.Backend,
		"max_workers", cfg.Workers.MaxWorkers,
		"process_count", cfg.Workers.ProcessCount,
	)

	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("http transport error: %w", err)
	}

	logger.Info("textguard stopped")
	return nil
}

// watchRuleDocument triggers mtime-gated rule-document reloads outside of
// an explicit /admin/reload call: on a periodic poll, and on reloadSignals()
// (SIGHUP on POSIX) when the platform has one. Both paths call Load with
// force=false, so an untouched file is a cheap no-op.
func watchRuleDocument(ctx context.Context, engine *guard.Engine, pollInterval time.Duration, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	if signals := reloadSignals(); len(signals) > 0 {
		signal.Notify(sigCh, signals...)
		defer signal.Stop(sigCh)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			logger.Info("reload signal received, checking rule document for changes")
			if err := engine.Load(ctx, false); err != nil {
				logger.Warn("signal-triggered rule reload failed", "error", err)
			}
		case <-ticker.C:
			if err := engine.Load(ctx, false); err != nil {
				logger.Warn("periodic rule reload check failed", "error", err)
			}
		}
	}
}

// buildCache constructs the configured result cache backend and returns a
// cleanup function to run at shutdown.
func buildCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (outbound.ResultCache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		logger.Info("result cache: redis", "host", cfg.Cache.Redis.Host, "port", cfg.Cache.Redis.Port, "db", cfg.Cache.Redis.DB)
		return cache.NewRedis(client, logger), func() { _ = client.Close() }, nil
	case "memory", "":
		logger.Info("result cache: memory")
		mem := cache.NewMemory()
		mem.StartJanitor(ctx)
		return mem, mem.Stop, nil
	default:
		return nil, func() {}, fmt.Errorf("unsupported cache backend: %s", cfg.Cache.Backend)
	}
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
