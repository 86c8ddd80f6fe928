package config

import "github.com/urfave/cli/v2"

// Category names mirror the way cmd/utils/flags_rollup.go groups its one
// flag under a dedicated flags.Category constant.
const (
	categoryRoundGate     = "ROUND GATE"
	categoryConcurrency   = "CONCURRENCY"
	categoryScoring       = "SCORING"
	categoryGeneration    = "TASK GENERATION"
	categoryValidation    = "SANDBOX VALIDATION"
	categoryChain         = "CHAIN"
	categoryPersistence   = "PERSISTENCE"
	categoryObservability = "OBSERVABILITY"
)

// Flags is the full set of CLI flags the validator binary accepts. Every
// flag also carries an ALPHACORE_* environment variable, so Config can be
// fully specified without a single command-line argument, matching how the
// Python implementation is operated in production.
var Flags = []cli.Flag{
	&cli.StringFlag{Name: "config", Usage: "optional lower-priority TOML config file", EnvVars: []string{"ALPHACORE_CONFIG_FILE"}},

	&cli.Float64Flag{Name: "round-cadence-seconds", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_ROUND_CADENCE_SECONDS"}},
	&cli.Float64Flag{Name: "tick-seconds", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_TICK_SECONDS"}},
	&cli.Uint64Flag{Name: "round-size-epochs", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_ROUND_SIZE_EPOCHS"}},
	&cli.Uint64Flag{Name: "safety-buffer-epochs", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_SAFETY_BUFFER_EPOCHS"}},
	&cli.Float64Flag{Name: "skip-round-if-started-after-fraction", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_SKIP_ROUND_IF_STARTED_AFTER_FRACTION"}},
	&cli.BoolFlag{Name: "one-round-per-epoch", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_ONE_ROUND_PER_EPOCH"}},
	&cli.Uint64Flag{Name: "epoch-slots", Category: categoryRoundGate, EnvVars: []string{"ALPHACORE_EPOCH_SLOTS"}},
	&cli.Int64Flag{Name: "epoch-slot-index", Category: categoryRoundGate, Value: -1, EnvVars: []string{"ALPHACORE_EPOCH_SLOT_INDEX"}},
	&cli.BoolFlag{Name: "epoch-mode", Category: categoryRoundGate, Value: true, EnvVars: []string{"ALPHACORE_EPOCH_MODE"}},

	&cli.IntFlag{Name: "miner-concurrency", Category: categoryConcurrency, EnvVars: []string{"ALPHACORE_MINER_CONCURRENCY"}},
	&cli.IntFlag{Name: "validation-concurrency", Category: categoryConcurrency, EnvVars: []string{"ALPHACORE_VALIDATION_CONCURRENCY"}},
	&cli.Float64Flag{Name: "handshake-timeout-seconds", Category: categoryConcurrency, EnvVars: []string{"ALPHACORE_HANDSHAKE_TIMEOUT_SECONDS"}},
	&cli.Float64Flag{Name: "task-synapse-timeout-seconds", Category: categoryConcurrency, EnvVars: []string{"ALPHACORE_TASK_SYNAPSE_TIMEOUT_SECONDS"}},
	&cli.Float64Flag{Name: "dispatch-progress-log-interval-s", Category: categoryConcurrency, EnvVars: []string{"ALPHACORE_DISPATCH_PROGRESS_LOG_INTERVAL_S"}},

	&cli.BoolFlag{Name: "latency-scoring-enabled", Category: categoryScoring, Value: true, EnvVars: []string{"ALPHACORE_LATENCY_SCORING_ENABLED"}},
	&cli.Float64Flag{Name: "api-score-weight", Category: categoryScoring, EnvVars: []string{"ALPHACORE_API_SCORE_WEIGHT"}},
	&cli.Float64Flag{Name: "latency-score-weight", Category: categoryScoring, EnvVars: []string{"ALPHACORE_LATENCY_SCORE_WEIGHT"}},
	&cli.Float64Flag{Name: "latency-score-gamma", Category: categoryScoring, EnvVars: []string{"ALPHACORE_LATENCY_SCORE_GAMMA"}},
	&cli.Float64Flag{Name: "latency-tie-epsilon-s", Category: categoryScoring, EnvVars: []string{"ALPHACORE_LATENCY_TIE_EPSILON_S"}},
	&cli.Float64Flag{Name: "latency-tie-penalty-max", Category: categoryScoring, EnvVars: []string{"ALPHACORE_LATENCY_TIE_PENALTY_MAX"}},

	&cli.IntFlag{Name: "tasks-per-round", Category: categoryGeneration, EnvVars: []string{"ALPHACORE_TASKS_PER_ROUND"}},
	&cli.IntFlag{Name: "pre-generated-tasks", Category: categoryGeneration, EnvVars: []string{"ALPHACORE_PRE_GENERATED_TASKS"}},
	&cli.IntFlag{Name: "max-generation-tries", Category: categoryGeneration, Value: 20, EnvVars: []string{"ALPHACORE_MAX_GENERATION_TRIES"}},
	&cli.Float64Flag{Name: "generation-retry-sleep-seconds", Category: categoryGeneration, Value: 1, EnvVars: []string{"ALPHACORE_GENERATION_RETRY_SLEEP_SECONDS"}},
	&cli.StringFlag{Name: "task-generator-endpoint", Category: categoryGeneration, EnvVars: []string{"ALPHACORE_TASK_GENERATOR_ENDPOINT"}},
	&cli.Float64Flag{Name: "task-generator-timeout-seconds", Category: categoryGeneration, EnvVars: []string{"ALPHACORE_TASK_GENERATOR_TIMEOUT_SECONDS"}},

	&cli.BoolFlag{Name: "validation-api-enabled", Category: categoryValidation, Value: true, EnvVars: []string{"ALPHACORE_VALIDATION_API_ENABLED"}},
	&cli.StringFlag{Name: "validation-api-endpoint", Category: categoryValidation, EnvVars: []string{"ALPHACORE_VALIDATION_API_ENDPOINT"}},
	&cli.DurationFlag{Name: "validation-api-timeout", Category: categoryValidation, EnvVars: []string{"ALPHACORE_VALIDATION_API_TIMEOUT"}},
	&cli.IntFlag{Name: "validation-api-retries", Category: categoryValidation, EnvVars: []string{"ALPHACORE_VALIDATION_API_RETRIES"}},
	&cli.StringFlag{Name: "sandbox-token-secret", Category: categoryValidation, EnvVars: []string{"ALPHACORE_SANDBOX_TOKEN_SECRET"}},
	&cli.Float64Flag{Name: "sandbox-token-ttl-seconds", Category: categoryValidation, EnvVars: []string{"ALPHACORE_SANDBOX_TOKEN_TTL_SECONDS"}},
	&cli.Float64Flag{Name: "sandbox-rate-limit-per-second", Category: categoryValidation, EnvVars: []string{"ALPHACORE_SANDBOX_RATE_LIMIT_PER_SECOND"}},

	&cli.Float64Flag{Name: "metagraph-resync-seconds", Category: categoryChain, EnvVars: []string{"ALPHACORE_METAGRAPH_RESYNC_SECONDS"}},
	&cli.Uint64Flag{Name: "tempo", Category: categoryChain, EnvVars: []string{"ALPHACORE_TEMPO"}},
	&cli.IntFlag{Name: "netuid", Category: categoryChain, EnvVars: []string{"ALPHACORE_NETUID"}},
	&cli.StringFlag{Name: "miner-filter-expr", Category: categoryChain, EnvVars: []string{"ALPHACORE_MINER_FILTER_EXPR"}},
	&cli.StringFlag{Name: "chain-rpc-endpoint", Category: categoryChain, EnvVars: []string{"ALPHACORE_CHAIN_RPC_ENDPOINT"}},
	&cli.Float64Flag{Name: "chain-rpc-timeout-seconds", Category: categoryChain, EnvVars: []string{"ALPHACORE_CHAIN_RPC_TIMEOUT_SECONDS"}},

	&cli.Float64Flag{Name: "weights-min-interval-seconds", Category: categoryChain, EnvVars: []string{"ALPHACORE_WEIGHTS_MIN_INTERVAL_SECONDS"}},
	&cli.Int64Flag{Name: "burn-uid", Category: categoryChain, EnvVars: []string{"ALPHACORE_BURN_UID"}},

	&cli.BoolFlag{Name: "enable-checkpoint-system", Category: categoryPersistence, Value: true, EnvVars: []string{"ALPHACORE_ENABLE_CHECKPOINT_SYSTEM"}},
	&cli.StringFlag{Name: "checkpoint-dir", Category: categoryPersistence, EnvVars: []string{"ALPHACORE_CHECKPOINT_DIR"}},
	&cli.StringFlag{Name: "ledger-dir", Category: categoryPersistence, EnvVars: []string{"ALPHACORE_LEDGER_DIR"}},
	&cli.StringFlag{Name: "metagraph-dir", Category: categoryPersistence, EnvVars: []string{"ALPHACORE_METAGRAPH_DIR"}},
	&cli.StringFlag{Name: "process-name", Category: categoryPersistence, EnvVars: []string{"ALPHACORE_VALIDATOR_NAME"}},
	&cli.StringFlag{Name: "hotkey-seed", Category: categoryPersistence, EnvVars: []string{"ALPHACORE_HOTKEY_SEED"}},

	&cli.StringFlag{Name: "log-level", Category: categoryObservability, EnvVars: []string{"ALPHACORE_LOG_LEVEL"}},
	&cli.BoolFlag{Name: "log-round-summaries", Category: categoryObservability, Value: true, EnvVars: []string{"ALPHACORE_LOG_ROUND_SUMMARIES"}},
	&cli.BoolFlag{Name: "verbose-task-logging", Category: categoryObservability, EnvVars: []string{"ALPHACORE_VERBOSE_TASK_LOGGING"}},
	&cli.BoolFlag{Name: "enable-http-endpoints", Category: categoryObservability, EnvVars: []string{"ALPHACORE_ENABLE_HTTP_ENDPOINTS"}},
	&cli.StringFlag{Name: "http-host", Category: categoryObservability, EnvVars: []string{"ALPHACORE_HTTP_HOST"}},
	&cli.IntFlag{Name: "http-port", Category: categoryObservability, EnvVars: []string{"ALPHACORE_HTTP_PORT"}},

	&cli.StringFlag{Name: "influx-url", Category: categoryObservability, EnvVars: []string{"ALPHACORE_INFLUX_URL"}},
	&cli.StringFlag{Name: "influx-token", Category: categoryObservability, EnvVars: []string{"ALPHACORE_INFLUX_TOKEN"}},
	&cli.StringFlag{Name: "influx-org", Category: categoryObservability, EnvVars: []string{"ALPHACORE_INFLUX_ORG"}},
	&cli.StringFlag{Name: "influx-bucket", Category: categoryObservability, EnvVars: []string{"ALPHACORE_INFLUX_BUCKET"}},
	&cli.Float64Flag{Name: "influx-push-interval-seconds", Category: categoryObservability, EnvVars: []string{"ALPHACORE_INFLUX_PUSH_INTERVAL_SECONDS"}},
}
