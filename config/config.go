// Package config declares every environment-variable-driven knob the
// validator's round orchestration core reads at startup, following the
// ALPHACORE_* naming convention of the Python implementation this subnet was
// distilled from.
package config

import "time"

// Config is the fully resolved configuration for one validator process.
// Every field corresponds to exactly one row in spec.md section 6's option
// table and one ALPHACORE_* environment variable declared in flags.go.
type Config struct {
	// Round Gate
	RoundCadenceSeconds           float64
	TickSeconds                   float64
	RoundSizeEpochs               uint64
	SafetyBufferEpochs            uint64
	SkipRoundIfStartedAfterFraction float64
	OneRoundPerEpoch              bool
	EpochSlots                    uint64
	EpochSlotIndex                int64 // -1 means "derive from uid/hotkey"
	EpochMode                     bool  // true = epoch mode, false = timed mode

	// Concurrency
	MinerConcurrency      int
	ValidationConcurrency int

	// Timeouts
	HandshakeTimeoutSeconds     float64
	TaskSynapseTimeoutSeconds   float64
	DispatchProgressLogIntervalS float64

	// Scoring
	LatencyScoringEnabled bool
	APIScoreWeight        float64
	LatencyScoreWeight    float64
	LatencyScoreGamma     float64
	LatencyTieEpsilonS    float64
	LatencyTiePenaltyMax  float64

	// Task generation
	TasksPerRound      int
	PreGeneratedTasks  int
	MaxGenerationTries int
	GenerationRetrySleepSeconds float64
	TaskGeneratorEndpoint       string
	TaskGeneratorTimeoutSeconds float64

	// Sandbox validation
	ValidationAPIEnabled  bool
	ValidationAPIEndpoint string
	ValidationAPITimeout  time.Duration
	ValidationAPIRetries  int
	SandboxTokenSecret    string // shared HMAC secret; empty disables bearer auth
	SandboxTokenTTLSeconds float64
	SandboxRateLimitPerSecond float64 // 0 disables rate limiting

	// Metagraph
	MetagraphResyncSeconds float64

	// Settlement
	WeightsMinIntervalSeconds float64
	BurnUID                   int64

	// Persistence
	EnableCheckpointSystem bool
	CheckpointDir          string
	LedgerDir              string
	MetagraphDir           string
	ProcessName            string

	// Identity
	HotkeySeed string // hex-encoded ed25519 seed; empty generates an ephemeral key

	// Chain
	Tempo              uint64
	NetUID             uint16
	ChainRPCEndpoint   string
	ChainRPCTimeoutSeconds float64

	// Optional InfluxDB v2 telemetry export. Empty URL disables the reporter.
	InfluxURL              string
	InfluxToken            string
	InfluxOrg              string
	InfluxBucket           string
	InfluxPushIntervalSeconds float64

	// Observability
	LogLevel                string
	LogRoundSummaries       bool
	VerboseTaskLogging      bool
	EnableHTTPEndpoints     bool
	HTTPHost                string
	HTTPPort                int

	// Operator-supplied miner filter (hashicorp/go-bexpr boolean expression
	// evaluated over MinerIdentity fields). Empty means "no filter".
	MinerFilterExpr string

	// Optional lower-priority TOML config file, watched for hot reload of
	// the reloadable subset (see reload.go).
	ConfigFile string
}

// Default returns a Config populated with the same defaults the Python
// implementation's config.py applies (confirmed against
// original_source/subnet/validator/config.py), before any flags/env
// overrides are layered on.
func Default() Config {
	return Config{
		RoundCadenceSeconds:             360,
		TickSeconds:                     12,
		RoundSizeEpochs:                 1,
		SafetyBufferEpochs:              0,
		SkipRoundIfStartedAfterFraction: 0.9,
		OneRoundPerEpoch:                true,
		EpochSlots:                      1,
		EpochSlotIndex:                  -1,
		EpochMode:                       true,

		MinerConcurrency:      128,
		ValidationConcurrency: 4,

		HandshakeTimeoutSeconds:       5,
		TaskSynapseTimeoutSeconds:     1800,
		DispatchProgressLogIntervalS:  30,

		LatencyScoringEnabled: true,
		APIScoreWeight:        0.8,
		LatencyScoreWeight:    0.2,
		LatencyScoreGamma:     1.0,
		LatencyTieEpsilonS:    0.005,
		LatencyTiePenaltyMax:  0.1,

		TasksPerRound:               8,
		PreGeneratedTasks:           0,
		MaxGenerationTries:          20,
		GenerationRetrySleepSeconds: 1,
		TaskGeneratorEndpoint:       "http://127.0.0.1:8787",
		TaskGeneratorTimeoutSeconds: 30,

		ValidationAPIEnabled:  true,
		ValidationAPIEndpoint: "http://127.0.0.1:8888",
		ValidationAPITimeout:  300 * time.Second,
		ValidationAPIRetries:  2,
		SandboxTokenTTLSeconds: 300,

		MetagraphResyncSeconds: 60,

		WeightsMinIntervalSeconds: 60,
		BurnUID:                   0,

		EnableCheckpointSystem: true,
		CheckpointDir:          "./logs/checkpoints",
		LedgerDir:              "./logs/ledger",
		MetagraphDir:           "./logs/metagraph",
		ProcessName:            "alphacore-validator",

		Tempo:                  360,
		NetUID:                 1,
		ChainRPCEndpoint:       "http://127.0.0.1:9944",
		ChainRPCTimeoutSeconds: 10,

		InfluxPushIntervalSeconds: 15,

		LogLevel:            "info",
		LogRoundSummaries:   true,
		VerboseTaskLogging:  false,
		EnableHTTPEndpoints: false,
		HTTPHost:            "0.0.0.0",
		HTTPPort:            8899,
	}
}

// ValidationConcurrencyCap is the hard ceiling on sandbox submission
// concurrency: the bundled sandbox instance is known to be unreliable beyond
// this, so no configuration can raise it.
const ValidationConcurrencyCap = 4

// Normalize clamps fields that carry a hard invariant regardless of what an
// operator configured.
func (c *Config) Normalize() {
	if c.ValidationConcurrency > ValidationConcurrencyCap {
		c.ValidationConcurrency = ValidationConcurrencyCap
	}
	if c.ValidationConcurrency < 1 {
		c.ValidationConcurrency = 1
	}
	if c.MinerConcurrency < 1 {
		c.MinerConcurrency = 1
	}
	sum := c.APIScoreWeight + c.LatencyScoreWeight
	if sum <= 0 {
		c.APIScoreWeight, c.LatencyScoreWeight = 1, 0
	}
}

// NormalizedWeights returns w_api, w_lat such that they sum to 1.
func (c Config) NormalizedWeights() (wAPI, wLat float64) {
	sum := c.APIScoreWeight + c.LatencyScoreWeight
	if sum <= 0 {
		return 1, 0
	}
	return c.APIScoreWeight / sum, c.LatencyScoreWeight / sum
}
