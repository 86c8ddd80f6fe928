package validator

import (
	"context"
	"testing"
	"time"

	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

type fakeWeightSetter struct {
	called     bool
	normalized map[int64]float64
}

func (f *fakeWeightSetter) UpdateScores(normalized map[int64]float64) error {
	f.called = true
	f.normalized = normalized
	return nil
}

func TestSettlementNormalizesPositiveScoresOnly(t *testing.T) {
	round := model.NewRound("r1", 1, 1)
	round.SetFinalScore(1, 0.8)
	round.SetFinalScore(2, 0.4)
	round.SetFinalScore(3, 0) // excluded: non-positive
	round.SetFinalScore(0, 0.9)

	weights := &fakeWeightSetter{}
	core := &Core{Config: config.Default(), Weights: weights}
	core.Config.BurnUID = 0

	require.NoError(t, (SettlementPhase{}).Run(context.Background(), core, round))
	require.True(t, weights.called)
	require.NotContains(t, weights.normalized, int64(0))
	require.NotContains(t, weights.normalized, int64(3))
	require.InDelta(t, 1.0, weights.normalized[1]+weights.normalized[2], 1e-9)
	require.InDelta(t, 2.0, weights.normalized[1]/weights.normalized[2], 1e-9)
}

func TestSettlementSkipsWhenNoPositiveScores(t *testing.T) {
	round := model.NewRound("r1", 1, 1)
	round.SetFinalScore(1, 0)

	weights := &fakeWeightSetter{}
	core := &Core{Config: config.Default(), Weights: weights}

	require.NoError(t, (SettlementPhase{}).Run(context.Background(), core, round))
	require.False(t, weights.called)
}

func TestSettlementThrottlesWeightWritesWithinMinInterval(t *testing.T) {
	round := model.NewRound("r1", 1, 1)
	round.SetFinalScore(1, 0.8)

	weights := &fakeWeightSetter{}
	core := &Core{Config: config.Default(), Weights: weights}
	core.Config.WeightsMinIntervalSeconds = 60
	core.lastWeightsSetAt = time.Now()

	require.NoError(t, (SettlementPhase{}).Run(context.Background(), core, round))
	require.False(t, weights.called, "weight write must be throttled within min interval")
}

func TestSettlementWritesWeightsOnceMinIntervalElapsed(t *testing.T) {
	round := model.NewRound("r1", 1, 1)
	round.SetFinalScore(1, 0.8)

	weights := &fakeWeightSetter{}
	core := &Core{Config: config.Default(), Weights: weights}
	core.Config.WeightsMinIntervalSeconds = 60
	core.lastWeightsSetAt = time.Now().Add(-61 * time.Second)

	require.NoError(t, (SettlementPhase{}).Run(context.Background(), core, round))
	require.True(t, weights.called)
}
