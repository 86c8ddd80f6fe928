// Package validator implements the seven-phase round orchestration engine:
// Round Gate, Task Generator, Handshake Probe, Task Dispatcher, Evaluator,
// Feedback/Cleanup, and Settlement. Each phase is an explicit component with
// its own interface rather than a mixin merged into one class's MRO; the
// Round struct they operate on owns all shared per-round state, and phases
// take a mutable reference to it instead of reaching through inherited
// instance attributes.
package validator

import (
	"context"

	"github.com/luxapientia/alphacore-sub000/model"
)

// Phase is one step of the round pipeline. Run either advances the round or
// returns a *model.PhaseError describing how the caller should react:
// abort the round, degrade gracefully, or treat the failure as fatal.
type Phase interface {
	Name() model.Phase
	Run(ctx context.Context, core *Core, round *model.Round) error
}

// runPhase advances round to phase's declared phase, runs it, and on success
// leaves the round's Phase() at that step. A *model.PhaseError bubbles up
// unchanged so the caller (the round loop in gate.go) can inspect its Kind.
func runPhase(ctx context.Context, core *Core, round *model.Round, p Phase) error {
	if err := round.Advance(p.Name()); err != nil {
		return model.Fatal(p.Name(), err)
	}
	if err := p.Run(ctx, core, round); err != nil {
		return err
	}
	core.checkpointRound(round)
	return nil
}
