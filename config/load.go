package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"
)

// fileOverrides mirrors the subset of Config that may come from a TOML file.
// Only non-zero fields override Default(); flags/env (applied afterward by
// Load) always win over the file, matching the layered precedence
// documented in SPEC_FULL.md's configuration section: Default < TOML file <
// flag/env.
type fileOverrides struct {
	RoundCadenceSeconds *float64 `toml:"round_cadence_seconds"`
	TickSeconds         *float64 `toml:"tick_seconds"`
	MinerConcurrency    *int     `toml:"miner_concurrency"`
	ValidationConcurrency *int   `toml:"validation_concurrency"`
	APIScoreWeight      *float64 `toml:"api_score_weight"`
	LatencyScoreWeight  *float64 `toml:"latency_score_weight"`
	TasksPerRound       *int     `toml:"tasks_per_round"`
	ValidationAPIEndpoint *string `toml:"validation_api_endpoint"`
	LogLevel            *string  `toml:"log_level"`
	MinerFilterExpr     *string  `toml:"miner_filter_expr"`
}

// Load builds a Config from Default(), layers an optional TOML file on top,
// then layers whatever the CLI context resolved (flags or their ALPHACORE_*
// environment variables) on top of that, and finally normalizes the result.
func Load(ctx *cli.Context) (Config, error) {
	cfg := Default()

	if path := ctx.String("config"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.ConfigFile = path
	}

	applyFlags(&cfg, ctx)
	cfg.Normalize()
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config: file %s does not exist", path)
	}
	var ov fileOverrides
	if _, err := toml.DecodeFile(path, &ov); err != nil {
		return fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if ov.RoundCadenceSeconds != nil {
		cfg.RoundCadenceSeconds = *ov.RoundCadenceSeconds
	}
	if ov.TickSeconds != nil {
		cfg.TickSeconds = *ov.TickSeconds
	}
	if ov.MinerConcurrency != nil {
		cfg.MinerConcurrency = *ov.MinerConcurrency
	}
	if ov.ValidationConcurrency != nil {
		cfg.ValidationConcurrency = *ov.ValidationConcurrency
	}
	if ov.APIScoreWeight != nil {
		cfg.APIScoreWeight = *ov.APIScoreWeight
	}
	if ov.LatencyScoreWeight != nil {
		cfg.LatencyScoreWeight = *ov.LatencyScoreWeight
	}
	if ov.TasksPerRound != nil {
		cfg.TasksPerRound = *ov.TasksPerRound
	}
	if ov.ValidationAPIEndpoint != nil {
		cfg.ValidationAPIEndpoint = *ov.ValidationAPIEndpoint
	}
	if ov.LogLevel != nil {
		cfg.LogLevel = *ov.LogLevel
	}
	if ov.MinerFilterExpr != nil {
		cfg.MinerFilterExpr = *ov.MinerFilterExpr
	}
	return nil
}

// applyFlags overlays every flag that was explicitly set (via argv or its
// EnvVars) onto cfg. cli.Context.IsSet is false for flags left at their
// zero Value, so Default()'s values survive unless a flag truly fired.
func applyFlags(cfg *Config, ctx *cli.Context) {
	set := func(name string, apply func()) {
		if ctx.IsSet(name) {
			apply()
		}
	}

	set("round-cadence-seconds", func() { cfg.RoundCadenceSeconds = ctx.Float64("round-cadence-seconds") })
	set("tick-seconds", func() { cfg.TickSeconds = ctx.Float64("tick-seconds") })
	set("round-size-epochs", func() { cfg.RoundSizeEpochs = ctx.Uint64("round-size-epochs") })
	set("safety-buffer-epochs", func() { cfg.SafetyBufferEpochs = ctx.Uint64("safety-buffer-epochs") })
	set("skip-round-if-started-after-fraction", func() {
		cfg.SkipRoundIfStartedAfterFraction = ctx.Float64("skip-round-if-started-after-fraction")
	})
	set("one-round-per-epoch", func() { cfg.OneRoundPerEpoch = ctx.Bool("one-round-per-epoch") })
	set("epoch-slots", func() { cfg.EpochSlots = ctx.Uint64("epoch-slots") })
	set("epoch-slot-index", func() { cfg.EpochSlotIndex = ctx.Int64("epoch-slot-index") })
	set("epoch-mode", func() { cfg.EpochMode = ctx.Bool("epoch-mode") })

	set("miner-concurrency", func() { cfg.MinerConcurrency = ctx.Int("miner-concurrency") })
	set("validation-concurrency", func() { cfg.ValidationConcurrency = ctx.Int("validation-concurrency") })
	set("handshake-timeout-seconds", func() { cfg.HandshakeTimeoutSeconds = ctx.Float64("handshake-timeout-seconds") })
	set("task-synapse-timeout-seconds", func() { cfg.TaskSynapseTimeoutSeconds = ctx.Float64("task-synapse-timeout-seconds") })
	set("dispatch-progress-log-interval-s", func() {
		cfg.DispatchProgressLogIntervalS = ctx.Float64("dispatch-progress-log-interval-s")
	})

	set("latency-scoring-enabled", func() { cfg.LatencyScoringEnabled = ctx.Bool("latency-scoring-enabled") })
	set("api-score-weight", func() { cfg.APIScoreWeight = ctx.Float64("api-score-weight") })
	set("latency-score-weight", func() { cfg.LatencyScoreWeight = ctx.Float64("latency-score-weight") })
	set("latency-score-gamma", func() { cfg.LatencyScoreGamma = ctx.Float64("latency-score-gamma") })
	set("latency-tie-epsilon-s", func() { cfg.LatencyTieEpsilonS = ctx.Float64("latency-tie-epsilon-s") })
	set("latency-tie-penalty-max", func() { cfg.LatencyTiePenaltyMax = ctx.Float64("latency-tie-penalty-max") })

	set("tasks-per-round", func() { cfg.TasksPerRound = ctx.Int("tasks-per-round") })
	set("pre-generated-tasks", func() { cfg.PreGeneratedTasks = ctx.Int("pre-generated-tasks") })
	set("max-generation-tries", func() { cfg.MaxGenerationTries = ctx.Int("max-generation-tries") })
	set("generation-retry-sleep-seconds", func() {
		cfg.GenerationRetrySleepSeconds = ctx.Float64("generation-retry-sleep-seconds")
	})
	set("task-generator-endpoint", func() { cfg.TaskGeneratorEndpoint = ctx.String("task-generator-endpoint") })
	set("task-generator-timeout-seconds", func() {
		cfg.TaskGeneratorTimeoutSeconds = ctx.Float64("task-generator-timeout-seconds")
	})

	set("validation-api-enabled", func() { cfg.ValidationAPIEnabled = ctx.Bool("validation-api-enabled") })
	set("validation-api-endpoint", func() { cfg.ValidationAPIEndpoint = ctx.String("validation-api-endpoint") })
	set("validation-api-timeout", func() { cfg.ValidationAPITimeout = ctx.Duration("validation-api-timeout") })
	set("validation-api-retries", func() { cfg.ValidationAPIRetries = ctx.Int("validation-api-retries") })
	set("sandbox-token-secret", func() { cfg.SandboxTokenSecret = ctx.String("sandbox-token-secret") })
	set("sandbox-token-ttl-seconds", func() { cfg.SandboxTokenTTLSeconds = ctx.Float64("sandbox-token-ttl-seconds") })
	set("sandbox-rate-limit-per-second", func() {
		cfg.SandboxRateLimitPerSecond = ctx.Float64("sandbox-rate-limit-per-second")
	})

	set("metagraph-resync-seconds", func() { cfg.MetagraphResyncSeconds = ctx.Float64("metagraph-resync-seconds") })
	set("tempo", func() { cfg.Tempo = ctx.Uint64("tempo") })
	set("netuid", func() { cfg.NetUID = uint16(ctx.Int("netuid")) })
	set("miner-filter-expr", func() { cfg.MinerFilterExpr = ctx.String("miner-filter-expr") })
	set("chain-rpc-endpoint", func() { cfg.ChainRPCEndpoint = ctx.String("chain-rpc-endpoint") })
	set("chain-rpc-timeout-seconds", func() { cfg.ChainRPCTimeoutSeconds = ctx.Float64("chain-rpc-timeout-seconds") })

	set("weights-min-interval-seconds", func() { cfg.WeightsMinIntervalSeconds = ctx.Float64("weights-min-interval-seconds") })
	set("burn-uid", func() { cfg.BurnUID = ctx.Int64("burn-uid") })

	set("enable-checkpoint-system", func() { cfg.EnableCheckpointSystem = ctx.Bool("enable-checkpoint-system") })
	set("checkpoint-dir", func() { cfg.CheckpointDir = ctx.String("checkpoint-dir") })
	set("ledger-dir", func() { cfg.LedgerDir = ctx.String("ledger-dir") })
	set("metagraph-dir", func() { cfg.MetagraphDir = ctx.String("metagraph-dir") })
	set("process-name", func() { cfg.ProcessName = ctx.String("process-name") })
	set("hotkey-seed", func() { cfg.HotkeySeed = ctx.String("hotkey-seed") })

	set("log-level", func() { cfg.LogLevel = ctx.String("log-level") })
	set("log-round-summaries", func() { cfg.LogRoundSummaries = ctx.Bool("log-round-summaries") })
	set("verbose-task-logging", func() { cfg.VerboseTaskLogging = ctx.Bool("verbose-task-logging") })
	set("enable-http-endpoints", func() { cfg.EnableHTTPEndpoints = ctx.Bool("enable-http-endpoints") })
	set("http-host", func() { cfg.HTTPHost = ctx.String("http-host") })
	set("http-port", func() { cfg.HTTPPort = ctx.Int("http-port") })

	set("influx-url", func() { cfg.InfluxURL = ctx.String("influx-url") })
	set("influx-token", func() { cfg.InfluxToken = ctx.String("influx-token") })
	set("influx-org", func() { cfg.InfluxOrg = ctx.String("influx-org") })
	set("influx-bucket", func() { cfg.InfluxBucket = ctx.String("influx-bucket") })
	set("influx-push-interval-seconds", func() {
		cfg.InfluxPushIntervalSeconds = ctx.Float64("influx-push-interval-seconds")
	})
}
