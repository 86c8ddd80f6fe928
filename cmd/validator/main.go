// Command validator runs one benchmarking-subnet validator process: it
// dials the chain RPC endpoint, resyncs the metagraph, and drives the round
// gate's tick loop until terminated.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/luxapientia/alphacore-sub000/chain"
	"github.com/luxapientia/alphacore-sub000/checkpoint"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/generator"
	"github.com/luxapientia/alphacore-sub000/identity"
	"github.com/luxapientia/alphacore-sub000/ledger"
	"github.com/luxapientia/alphacore-sub000/observability"
	"github.com/luxapientia/alphacore-sub000/sandboxclient"
	"github.com/luxapientia/alphacore-sub000/telemetry"
	"github.com/luxapientia/alphacore-sub000/transport"
	"github.com/luxapientia/alphacore-sub000/validator"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		log.Warn("failed to set GOMAXPROCS", "err", err)
	}

	app := &cli.App{
		Name:  "validator",
		Usage: "benchmarking subnet validator",
		Flags: config.Flags,
		Action: run,
		Commands: []*cli.Command{
			statusCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("validator exited with error", "err", err)
	}
}

// run is the default action: build every collaborator from cfg and drive
// the round gate until the process receives SIGINT/SIGTERM.
func run(cliCtx *cli.Context) error {
	cfg, err := config.Load(cliCtx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	rotatingLog := setupLogger(cfg)
	if rotatingLog != nil {
		defer rotatingLog.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloader, err := config.NewReloader(cfg)
	if err != nil {
		return fmt.Errorf("starting config reloader: %w", err)
	}
	defer reloader.Close()

	hotkey, err := loadOrCreateHotkey(cfg)
	if err != nil {
		return err
	}
	log.Info("validator identity", "hotkey", hotkey.String())

	rpcClient, err := chain.DialRPC(ctx, cfg.ChainRPCEndpoint, time.Duration(cfg.ChainRPCTimeoutSeconds*float64(time.Second)))
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	metagraph, err := chain.Open(rpcClient, cfg.NetUID, cfg.MetagraphDir)
	if err != nil {
		return fmt.Errorf("opening metagraph store: %w", err)
	}
	defer metagraph.Close()

	clock := chain.NewClock(rpcClient, cfg.NetUID, cfg.Tempo)
	filter, err := chain.NewFilter(cfg.MinerFilterExpr)
	if err != nil {
		return fmt.Errorf("compiling miner filter: %w", err)
	}

	go chain.ResyncLoop(ctx, metagraph, time.Duration(cfg.MetagraphResyncSeconds*float64(time.Second)))

	sandbox := sandboxclient.New(cfg.ValidationAPIEndpoint, cfg.ValidationAPITimeout, cfg.ValidationAPIRetries)
	if cfg.SandboxRateLimitPerSecond > 0 {
		sandbox = sandbox.WithRateLimit(cfg.SandboxRateLimitPerSecond)
	}
	if cfg.SandboxTokenSecret != "" {
		token, err := identity.IssueSandboxToken(hotkey, []byte(cfg.SandboxTokenSecret), time.Duration(cfg.SandboxTokenTTLSeconds*float64(time.Second)))
		if err != nil {
			return fmt.Errorf("issuing sandbox token: %w", err)
		}
		sandbox = sandbox.WithBearerToken(token)
	}
	if cfg.ValidationAPIEnabled {
		if _, err := sandbox.Health(ctx); err != nil {
			return fmt.Errorf("sandbox health check failed at startup: %w", err)
		}
		log.Info("sandbox validation service is healthy")
	}

	lg, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer lg.Close()

	var cp *checkpoint.Store
	if cfg.EnableCheckpointSystem {
		cp, err = checkpoint.Open(cfg.CheckpointDir)
		if err != nil {
			return fmt.Errorf("opening checkpoint store: %w", err)
		}
		defer cp.Close()
		if err := cp.GC(24 * time.Hour); err != nil {
			log.Warn("checkpoint: startup gc failed", "err", err)
		}
	}

	metricsRegistry := telemetry.NewRegistry()

	var influx *telemetry.InfluxReporter
	if cfg.InfluxURL != "" {
		influx = telemetry.NewInfluxReporter(
			cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket,
			"validator/", cfg.ProcessName, metrics.DefaultRegistry,
			time.Duration(cfg.InfluxPushIntervalSeconds*float64(time.Second)),
		)
		go influx.Run(ctx)
		defer influx.Close()
	}

	hub := observability.NewHub()
	if cfg.EnableHTTPEndpoints {
		provider := observability.NewFileSummaryProvider(cfg.LedgerDir + "/rounds")
		server, err := observability.NewServer(cfg.HTTPHost, cfg.HTTPPort, provider, hub)
		if err != nil {
			return fmt.Errorf("building observability server: %w", err)
		}
		go func() {
			if err := server.Serve(ctx); err != nil {
				log.Error("observability server stopped", "err", err)
			}
		}()
	}

	tasks := generator.New(cfg.TaskGeneratorEndpoint, time.Duration(cfg.TaskGeneratorTimeoutSeconds*float64(time.Second)))
	weights := chain.NewWeightSetter(rpcClient, cfg.NetUID, hotkey.String())
	tr := transport.NewClient(hotkey)

	core := validator.NewCore(cfg, metagraph, clock, filter, hotkey, tr, sandbox, lg, cp, metricsRegistry, hub, tasks, weights)
	gate := validator.NewRoundGate(core).WithReloader(reloader)

	log.Info("validator starting", "netuid", cfg.NetUID, "round_cadence_seconds", cfg.RoundCadenceSeconds, "epoch_mode", cfg.EpochMode)
	if err := gate.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("validator shutting down")
	return nil
}

// loadOrCreateHotkey loads a persisted hotkey from cfg.HotkeySeed, or
// generates a fresh ephemeral one when no seed was configured (suitable for
// local testing, never for a production validator whose weights must be
// attributable to a stable identity across restarts).
func loadOrCreateHotkey(cfg config.Config) (identity.Hotkey, error) {
	if cfg.HotkeySeed != "" {
		return identity.LoadHotkey(cfg.HotkeySeed)
	}
	log.Warn("no hotkey seed configured, generating an ephemeral identity for this process")
	return identity.NewHotkey()
}

// setupLogger installs a terminal handler at the configured verbosity,
// mirroring cmd/geth's own SetupLogger behavior. When cfg.LedgerDir is set,
// records also fan out to a rotated JSON log file under it; the returned
// *ledger.RotatingTextLog (nil when no ledger dir is configured) must be
// closed by the caller on shutdown.
func setupLogger(cfg config.Config) *ledger.RotatingTextLog {
	lvl, err := log.LevelFromString(cfg.LogLevel)
	if err != nil {
		lvl = log.LevelInfo
	}
	terminal := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)

	if cfg.LedgerDir == "" {
		log.SetDefault(log.NewLogger(terminal))
		return nil
	}

	rotating := ledger.NewRotatingTextLog(filepath.Join(cfg.LedgerDir, "validator.log"), 100, 5)
	fileHandler := slog.NewJSONHandler(&rotatingWriter{log: rotating}, &slog.HandlerOptions{Level: lvl})
	log.SetDefault(log.NewLogger(newFanoutHandler(terminal, fileHandler)))
	return rotating
}
