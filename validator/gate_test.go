package validator

import (
	"testing"

	"github.com/luxapientia/alphacore-sub000/chain"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

type fakeChainClient struct {
	block uint64
	tempo uint64
}

func (f fakeChainClient) CurrentBlock() (uint64, error)                    { return f.block, nil }
func (f fakeChainClient) Tempo(netuid uint16) (uint64, error)               { return f.tempo, nil }
func (f fakeChainClient) Neurons(netuid uint16) ([]model.MinerIdentity, error) { return nil, nil }

func TestDeriveSlotIndexIsDeterministicAndInRange(t *testing.T) {
	a := deriveSlotIndex("hotkey-a", 4)
	b := deriveSlotIndex("hotkey-a", 4)
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, int64(0))
	require.Less(t, a, int64(4))
}

func TestRoundGateEvaluateTimedModeHonorsCadence(t *testing.T) {
	cfg := config.Default()
	cfg.EpochMode = false
	cfg.RoundCadenceSeconds = 3600

	clock := chain.NewClock(fakeChainClient{block: 100, tempo: 10}, 1, 10)
	core := &Core{Config: cfg, Clock: clock}
	gate := NewRoundGate(core)

	decision, err := gate.evaluate()
	require.NoError(t, err)
	require.True(t, decision.shouldStart)
}

func TestRoundGateEvaluateEpochModeSingleSlot(t *testing.T) {
	cfg := config.Default()
	cfg.EpochMode = true
	cfg.EpochSlots = 1
	cfg.SkipRoundIfStartedAfterFraction = 0.9

	clock := chain.NewClock(fakeChainClient{block: 5, tempo: 10}, 1, 10)
	core := &Core{Config: cfg, Clock: clock}
	gate := NewRoundGate(core)

	decision, err := gate.evaluate()
	require.NoError(t, err)
	require.True(t, decision.shouldStart)
}

func TestRoundGateEvaluateOneRoundPerEpochBlocksRepeat(t *testing.T) {
	cfg := config.Default()
	cfg.EpochMode = true
	cfg.OneRoundPerEpoch = true

	clock := chain.NewClock(fakeChainClient{block: 5, tempo: 10}, 1, 10)
	core := &Core{Config: cfg, Clock: clock}
	gate := NewRoundGate(core)
	gate.lastRoundEpoch = 0

	decision, err := gate.evaluate()
	require.NoError(t, err)
	require.False(t, decision.shouldStart)
}
