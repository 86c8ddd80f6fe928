package validator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/chain"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/ledger"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/telemetry"
)

// gateDecision is the Round Gate's verdict for one tick.
type gateDecision struct {
	shouldStart bool
	block       uint64
	epoch       uint64
	reason      string
}

// RoundGate decides when a new round may start. It is deliberately the only
// component that knows about epoch slotting and one-round-per-epoch
// bookkeeping; every other phase just receives a *model.Round that already
// exists.
type RoundGate struct {
	core     *Core
	reloader *config.Reloader

	lastRoundEpoch int64 // -1 until the first round starts
	lastRoundAt    time.Time
}

// NewRoundGate builds a gate bound to core.
func NewRoundGate(core *Core) *RoundGate {
	return &RoundGate{core: core, lastRoundEpoch: -1}
}

// WithReloader attaches a config.Reloader whose Pending() values are applied
// to core.Config at the top of every tick, never mid-round. Optional: a gate
// built without one simply runs with the config it was constructed with.
func (g *RoundGate) WithReloader(r *config.Reloader) *RoundGate {
	g.reloader = r
	return g
}

// applyPendingConfig swaps in anything staged by the reloader since the last
// tick. Re-compiling the miner filter is skipped when the expression hasn't
// changed, since hashicorp/go-bexpr parses its expression once at Filter
// construction and there is no cheaper "has this changed" check than string
// comparison.
func (g *RoundGate) applyPendingConfig() {
	if g.reloader == nil {
		return
	}
	pending := g.reloader.Pending()
	cfg := &g.core.Config
	cfg.RoundCadenceSeconds = pending.RoundCadenceSeconds
	cfg.TasksPerRound = pending.TasksPerRound
	cfg.APIScoreWeight = pending.APIScoreWeight
	cfg.LatencyScoreWeight = pending.LatencyScoreWeight
	cfg.LogLevel = pending.LogLevel

	if pending.MinerFilterExpr != cfg.MinerFilterExpr {
		cfg.MinerFilterExpr = pending.MinerFilterExpr
		filter, err := chain.NewFilter(pending.MinerFilterExpr)
		if err != nil {
			log.Warn("config reload: new miner filter expression failed to compile, keeping previous filter", "expr", pending.MinerFilterExpr, "err", err)
			return
		}
		g.core.Filter = filter
	}
}

// evaluate computes whether a round should start right now, implementing
// both the timed-cadence mode and the epoch-slot mode the Python validator's
// main loop switches between depending on Config.EpochMode.
func (g *RoundGate) evaluate() (gateDecision, error) {
	cfg := g.core.Config

	block, err := g.core.Clock.CurrentBlock()
	if err != nil {
		return gateDecision{}, fmt.Errorf("round gate: reading current block: %w", err)
	}
	tempo := g.core.Clock.Tempo()
	if tempo == 0 {
		tempo = cfg.Tempo
	}
	epoch := block / maxu64(tempo, 1)

	if !cfg.EpochMode {
		if time.Since(g.lastRoundAt) < time.Duration(cfg.RoundCadenceSeconds)*time.Second {
			return gateDecision{reason: "cadence not elapsed"}, nil
		}
		return gateDecision{shouldStart: true, block: block, epoch: epoch, reason: "cadence elapsed"}, nil
	}

	if cfg.OneRoundPerEpoch && int64(epoch) == g.lastRoundEpoch {
		return gateDecision{reason: "round already started this epoch"}, nil
	}

	blocksIntoEpoch := block % maxu64(tempo, 1)
	progress := float64(blocksIntoEpoch) / float64(maxu64(tempo, 1))

	if cfg.EpochSlots <= 1 {
		if progress > cfg.SkipRoundIfStartedAfterFraction {
			return gateDecision{reason: "past skip-round fraction for this epoch"}, nil
		}
		return gateDecision{shouldStart: true, block: block, epoch: epoch, reason: "epoch-mode, single slot"}, nil
	}

	slotIndex := cfg.EpochSlotIndex
	if slotIndex < 0 {
		slotIndex = deriveSlotIndex(g.core.Hotkey.String(), cfg.EpochSlots)
	}
	slotStart := float64(slotIndex) / float64(cfg.EpochSlots)
	slotEnd := float64(slotIndex+1) / float64(cfg.EpochSlots)
	if progress < slotStart || progress >= slotEnd {
		return gateDecision{reason: "outside assigned epoch slot window"}, nil
	}
	return gateDecision{shouldStart: true, block: block, epoch: epoch, reason: "within assigned epoch slot window"}, nil
}

// deriveSlotIndex assigns a deterministic slot to a validator identity when
// no uid is known yet (pre-registration), hashing the hotkey's string form
// into [0, slots). The Python source left this undefined before chain
// registration; this is the Go implementation's resolution of that gap.
func deriveSlotIndex(hotkeyStr string, slots uint64) int64 {
	if slots == 0 {
		return 0
	}
	sum := sha256.Sum256([]byte(hotkeyStr))
	v := binary.BigEndian.Uint64(sum[:8])
	return int64(v % slots)
}

func maxu64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// pipeline is the fixed phase sequence one round runs through. Phases are
// listed in their mandatory order; RunRound always executes them in this
// order regardless of which collaborators a particular Core was built with.
func (g *RoundGate) pipeline() []Phase {
	return []Phase{
		&TaskGenerationPhase{},
		&HandshakePhase{},
		&DispatchPhase{},
		&EvaluationPhase{},
		&FeedbackCleanupPhase{},
		&SettlementPhase{},
	}
}

// RunRound executes exactly one round end to end. It never returns an error
// for anything short of model.KindFatal: an aborted or degraded round is
// still a successfully handled tick from the caller's point of view, logged
// and checkpointed like any other.
func (g *RoundGate) RunRound(ctx context.Context, decision gateDecision) error {
	roundID := fmt.Sprintf("round-%d", decision.block)
	round := model.NewRound(roundID, decision.block, decision.epoch)
	startedAt := time.Now()

	if g.core.Metrics != nil {
		g.core.Metrics.RoundsStarted.Inc(1)
	}

	host := telemetry.Snapshot()
	g.core.writeLedger("round_start", map[string]any{
		"round_id": roundID,
		"block":    decision.block,
		"epoch":    decision.epoch,
		"reason":   decision.reason,
		"host":     host,
	}, startedAt)
	g.core.publish(roundID, model.PhaseInit, "round started", nil)

	defer func() {
		g.finishRound(round)
		g.writeSummary(round, startedAt)
	}()

	for _, phase := range g.pipeline() {
		if err := runPhase(ctx, g.core, round, phase); err != nil {
			if perr, ok := err.(*model.PhaseError); ok {
				switch perr.Kind {
				case model.KindFatal:
					return perr
				case model.KindAbortRound:
					log.Warn("round aborted", "round_id", roundID, "phase", perr.Phase, "err", perr.Err)
					_ = round.Advance(model.PhaseAborted)
					if g.core.Metrics != nil {
						g.core.Metrics.RoundsAborted.Inc(1)
					}
					g.core.publish(roundID, model.PhaseAborted, perr.Error(), nil)
					return nil
				case model.KindDegraded:
					log.Warn("phase degraded, continuing round", "round_id", roundID, "phase", perr.Phase, "err", perr.Err)
					continue
				}
			}
			log.Error("unexpected phase error, aborting round", "round_id", roundID, "err", err)
			_ = round.Advance(model.PhaseAborted)
			if g.core.Metrics != nil {
				g.core.Metrics.RoundsAborted.Inc(1)
			}
			return nil
		}
	}

	if err := round.Advance(model.PhaseDone); err != nil {
		log.Warn("round: failed to mark done", "round_id", roundID, "err", err)
	}
	g.lastRoundEpoch = int64(decision.epoch)
	g.lastRoundAt = time.Now()
	if g.core.Metrics != nil {
		g.core.Metrics.RoundsCompleted.Inc(1)
	}
	g.core.publish(roundID, model.PhaseDone, "round complete", nil)
	return nil
}

// writeSummary renders the round's final state to logs/ledger/rounds/, best
// effort: a write failure is logged and never escalated, the same way every
// other persistence side effect in this package behaves.
func (g *RoundGate) writeSummary(round *model.Round, startedAt time.Time) {
	if g.core.Config.LedgerDir == "" {
		return
	}
	snap := round.Snapshot()
	sum := ledger.RoundSummary{
		RoundID:        round.RoundID,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		Phase:          string(snap.Phase),
		TaskCount:      snap.TaskCount,
		ActiveMiners:   round.ActiveUIDs.Cardinality(),
		Scores:         snap.Scores,
		SettledWeights: NormalizedFinalScores(g.core.Config, snap.Scores),
	}
	dir := filepath.Join(g.core.Config.LedgerDir, "rounds")
	if err := ledger.WriteSummary(dir, sum); err != nil {
		log.Warn("round summary: failed to write", "round_id", round.RoundID, "err", err)
	}
}

// finishRound runs the always-run cleanup the Python validator performs in
// its try/finally block: a final checkpoint save, and deleting the
// checkpoint once the round reached a terminal state cleanly.
func (g *RoundGate) finishRound(round *model.Round) {
	if g.core.Checkpoint == nil {
		return
	}
	g.core.checkpointRound(round)
	if round.Phase() == model.PhaseDone {
		if err := g.core.Checkpoint.Delete(round.RoundID); err != nil {
			log.Debug("checkpoint: failed to delete settled round checkpoint", "round_id", round.RoundID, "err", err)
		}
	}
}

// Run drives the main tick loop: evaluate the gate every TickSeconds, start
// a round when it fires, and block for the round's full duration before the
// next tick. num_concurrent_forwards is fixed at 1 by construction here —
// RunRound is always awaited to completion before Run loops back to
// evaluate — since round state in Core's collaborators is not safe for two
// rounds in flight at once.
func (g *RoundGate) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(g.core.Config.TickSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.applyPendingConfig()
			decision, err := g.evaluate()
			if err != nil {
				log.Error("round gate: evaluation failed", "err", err)
				continue
			}
			if !decision.shouldStart {
				log.Debug("round gate: not starting round", "reason", decision.reason)
				continue
			}
			log.Info("round gate: starting round", "block", decision.block, "epoch", decision.epoch, "reason", decision.reason)
			if err := g.RunRound(ctx, decision); err != nil {
				if perr, ok := err.(*model.PhaseError); ok && perr.Kind == model.KindFatal {
					return perr
				}
				log.Error("round loop: unexpected error", "err", err)
			}
		}
	}
}
