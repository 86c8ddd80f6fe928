package validator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/model"
)

// SettlementPhase normalizes the round's final scores into a weight vector
// and hands it to the WeightSetter collaborator. It never commits weights
// itself — the EMA mixing and on-chain set_weights call are both out of
// this module's scope.
type SettlementPhase struct{}

func (SettlementPhase) Name() model.Phase { return model.PhaseSettling }

func (p SettlementPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()

	normalized := NormalizedFinalScores(core.Config, round.FinalScores)
	if len(normalized) == 0 {
		log.Warn("settlement: no positive scores this round, skipping weight update", "round_id", round.RoundID)
		core.writeLedger("settlement_complete", map[string]any{
			"round_id": round.RoundID,
			"skipped":  true,
		}, time.Now())
		return nil
	}

	minInterval := time.Duration(core.Config.WeightsMinIntervalSeconds * float64(time.Second))
	sinceLast := time.Since(core.lastWeightsSetAt)
	throttled := !core.lastWeightsSetAt.IsZero() && sinceLast < minInterval

	if core.Weights != nil && !throttled {
		if err := core.Weights.UpdateScores(normalized); err != nil {
			log.Error("settlement: weight update failed", "round_id", round.RoundID, "err", err)
			return model.Degraded(model.PhaseSettling, fmt.Errorf("updating scores: %w", err))
		}
		core.lastWeightsSetAt = time.Now()
	} else if throttled {
		log.Debug("settlement: skipping on-chain weight write, min interval not elapsed",
			"round_id", round.RoundID, "since_last", sinceLast, "min_interval", minInterval)
	}

	if core.Metrics != nil {
		core.Metrics.SettlementTimer.UpdateSince(start)
		core.Metrics.WeightsSettled.Inc(1)
	}

	core.writeLedger("settlement_complete", map[string]any{
		"round_id":  round.RoundID,
		"miners":    len(normalized),
		"skipped":   false,
		"throttled": throttled,
	}, time.Now())
	core.publish(round.RoundID, model.PhaseSettling, fmt.Sprintf("settled %d miners", len(normalized)), nil)
	return nil
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizedFinalScores drops the burn uid and any non-finite or non-positive
// score, then rescales what's left so it sums to 1. It returns nil when
// nothing survives the filter, which both SettlementPhase and the round
// summary writer treat as "no weights to report".
func NormalizedFinalScores(cfg config.Config, scores map[int64]float64) map[int64]float64 {
	positive := make(map[int64]float64)
	for uid, score := range scores {
		if uid == cfg.BurnUID {
			continue
		}
		if !isFinitePositive(score) {
			continue
		}
		positive[uid] = score
	}
	if len(positive) == 0 {
		return nil
	}

	sum := 0.0
	for _, v := range positive {
		sum += v
	}
	normalized := make(map[int64]float64, len(positive))
	for uid, v := range positive {
		normalized[uid] = v / sum
	}
	return normalized
}
