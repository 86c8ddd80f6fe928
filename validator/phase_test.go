package validator

import (
	"context"
	"testing"

	"github.com/luxapientia/alphacore-sub000/checkpoint"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/stretchr/testify/require"
)

type stubPhase struct {
	name model.Phase
	err  error
}

func (s stubPhase) Name() model.Phase { return s.name }
func (s stubPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	return s.err
}

func TestRunPhaseCheckpointsAfterSuccess(t *testing.T) {
	cp, err := checkpoint.Open(t.TempDir())
	require.NoError(t, err)
	defer cp.Close()

	core := &Core{Checkpoint: cp}
	round := model.NewRound("r1", 1, 1)

	require.NoError(t, runPhase(context.Background(), core, round, stubPhase{name: model.PhaseDispatching}))

	saved, ok, err := cp.Load("r1")
	require.NoError(t, err)
	require.True(t, ok, "phase success must checkpoint the round")
	require.Equal(t, model.PhaseDispatching, saved.Phase)
}

func TestRunPhaseDoesNotCheckpointOnFailure(t *testing.T) {
	cp, err := checkpoint.Open(t.TempDir())
	require.NoError(t, err)
	defer cp.Close()

	core := &Core{Checkpoint: cp}
	round := model.NewRound("r1", 1, 1)

	err = runPhase(context.Background(), core, round, stubPhase{name: model.PhaseDispatching, err: model.Abort(model.PhaseDispatching, assertErr{})})
	require.Error(t, err)

	_, ok, loadErr := cp.Load("r1")
	require.NoError(t, loadErr)
	require.False(t, ok, "a failed phase must not leave a checkpoint behind")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
