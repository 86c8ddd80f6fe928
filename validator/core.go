package validator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/chain"
	"github.com/luxapientia/alphacore-sub000/checkpoint"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/identity"
	"github.com/luxapientia/alphacore-sub000/ledger"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/observability"
	"github.com/luxapientia/alphacore-sub000/sandboxclient"
	"github.com/luxapientia/alphacore-sub000/telemetry"
	"github.com/luxapientia/alphacore-sub000/transport"
)

// TaskSource supplies one freshly generated task to the Task Generator
// phase. Generating the prompt, invariants, and verify plan is out of this
// module's scope; Core is handed an implementation at construction time the
// same way it is handed a chain client or sandbox client.
type TaskSource interface {
	// Generate produces one candidate task. An error means "this attempt
	// produced nothing usable"; the generation phase retries up to
	// Config.MaxGenerationTries before giving up on the round.
	Generate(ctx context.Context) (model.TaskSpec, error)
}

// WeightSetter is the on-chain consensus collaborator settlement hands its
// normalized weight vector to. Committing weights to the chain and the EMA
// mixing itself are out of this module's scope (spec Non-goal); Core only
// depends on the interface.
type WeightSetter interface {
	UpdateScores(normalized map[int64]float64) error
}

// Core holds every collaborator the round loop needs, constructed once at
// startup and passed explicitly to every phase. Nothing here is a package
// global: two Cores in the same process are fully independent, and a test
// can build a Core from fakes for every field.
type Core struct {
	Config config.Config

	Metagraph *chain.Metagraph
	Clock     *chain.Clock
	Filter    *chain.Filter
	Hotkey    identity.Hotkey

	Transport *transport.Client
	Sandbox   *sandboxclient.Client

	Ledger     *ledger.Ledger
	Checkpoint *checkpoint.Store
	Metrics    *telemetry.Registry
	Hub        *observability.Hub

	Tasks   TaskSource
	Weights WeightSetter

	pool *taskPool

	lastWeightsSetAt time.Time // zero until the first on-chain weight write
}

// NewCore assembles a Core from its collaborators. Every field is supplied
// by the caller (cmd/validator's wiring code); Core never constructs its
// own collaborators.
func NewCore(
	cfg config.Config,
	mg *chain.Metagraph,
	clk *chain.Clock,
	filter *chain.Filter,
	hotkey identity.Hotkey,
	tr *transport.Client,
	sb *sandboxclient.Client,
	lg *ledger.Ledger,
	cp *checkpoint.Store,
	metrics *telemetry.Registry,
	hub *observability.Hub,
	tasks TaskSource,
	weights WeightSetter,
) *Core {
	return &Core{
		Config:     cfg,
		Metagraph:  mg,
		Clock:      clk,
		Filter:     filter,
		Hotkey:     hotkey,
		Transport:  tr,
		Sandbox:    sb,
		Ledger:     lg,
		Checkpoint: cp,
		Metrics:    metrics,
		Hub:        hub,
		Tasks:      tasks,
		Weights:    weights,
	}
}

// publish forwards a progress event to the observability hub, if one is
// wired up. It is always safe to call on a Core built without a hub.
func (c *Core) publish(roundID string, phase model.Phase, detail string, extra map[string]any) {
	if c.Hub == nil {
		return
	}
	c.Hub.Publish(observability.ProgressEvent{
		RoundID: roundID,
		Phase:   string(phase),
		Detail:  detail,
		Extra:   extra,
	})
}

// writeLedger is a best-effort ledger append: a failure is logged by the
// ledger package itself and never propagated into round control flow.
func (c *Core) writeLedger(event string, payload map[string]any, at time.Time) {
	if c.Ledger == nil {
		return
	}
	_ = c.Ledger.Write(event, payload, at)
}

// checkpointRound persists round's current state, re-written at every
// successful phase boundary so a crash mid-round (most costly during the
// long-running Dispatch phase) leaves the last completed phase on disk for
// operator inspection; nothing reloads it to resume the round. Best effort, like every other
// persistence side effect here: a save failure is logged, never escalated.
func (c *Core) checkpointRound(round *model.Round) {
	if c.Checkpoint == nil {
		return
	}
	snap := round.Snapshot()
	snap.Timestamp = time.Now()
	if err := c.Checkpoint.Save(snap); err != nil {
		log.Warn("checkpoint: failed to save phase boundary state", "round_id", round.RoundID, "phase", snap.Phase, "err", err)
	}
}
