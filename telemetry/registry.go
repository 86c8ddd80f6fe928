// Package telemetry wires the round orchestration core into go-ethereum's
// metrics registry, a host resource snapshot taken at round start, and an
// optional InfluxDB v2 reporter. None of this feeds back into orchestration
// decisions; it exists purely for operator observability.
package telemetry

import "github.com/ethereum/go-ethereum/metrics"

// Registry holds every counter/timer/gauge the round loop updates, one per
// phase plus a handful of cross-cutting ones. Registered against
// metrics.DefaultRegistry the same way miner/worker.go registers its own
// package-level metrics in the teacher repo.
type Registry struct {
	RoundsStarted   metrics.Counter
	RoundsCompleted metrics.Counter
	RoundsAborted   metrics.Counter

	GenerationTimer  metrics.Timer
	HandshakeTimer   metrics.Timer
	DispatchTimer    metrics.Timer
	EvaluationTimer  metrics.Timer
	FeedbackTimer    metrics.Timer
	SettlementTimer  metrics.Timer

	TasksGenerated   metrics.Counter
	TasksDispatched  metrics.Counter
	MinersAlive      metrics.GaugeFloat64
	MinersHandshaked metrics.GaugeFloat64

	SandboxValidateOK     metrics.Counter
	SandboxValidateFailed metrics.Counter
	SandboxRetries        metrics.Counter

	WeightsSettled metrics.Counter
}

// NewRegistry registers every metric under the "validator/" namespace
// against metrics.DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{
		RoundsStarted:   metrics.NewRegisteredCounter("validator/round/started", nil),
		RoundsCompleted: metrics.NewRegisteredCounter("validator/round/completed", nil),
		RoundsAborted:   metrics.NewRegisteredCounter("validator/round/aborted", nil),

		GenerationTimer: metrics.NewRegisteredTimer("validator/phase/generation", nil),
		HandshakeTimer:  metrics.NewRegisteredTimer("validator/phase/handshake", nil),
		DispatchTimer:   metrics.NewRegisteredTimer("validator/phase/dispatch", nil),
		EvaluationTimer: metrics.NewRegisteredTimer("validator/phase/evaluation", nil),
		FeedbackTimer:   metrics.NewRegisteredTimer("validator/phase/feedback", nil),
		SettlementTimer: metrics.NewRegisteredTimer("validator/phase/settlement", nil),

		TasksGenerated:   metrics.NewRegisteredCounter("validator/tasks/generated", nil),
		TasksDispatched:  metrics.NewRegisteredCounter("validator/tasks/dispatched", nil),
		MinersAlive:      metrics.NewRegisteredGaugeFloat64("validator/miners/alive", nil),
		MinersHandshaked: metrics.NewRegisteredGaugeFloat64("validator/miners/handshaked", nil),

		SandboxValidateOK:     metrics.NewRegisteredCounter("validator/sandbox/validate_ok", nil),
		SandboxValidateFailed: metrics.NewRegisteredCounter("validator/sandbox/validate_failed", nil),
		SandboxRetries:        metrics.NewRegisteredCounter("validator/sandbox/retries", nil),

		WeightsSettled: metrics.NewRegisteredCounter("validator/settlement/count", nil),
	}
}
