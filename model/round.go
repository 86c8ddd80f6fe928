package model

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Phase is one state in a Round's lifecycle. Transitions are monotonic:
// init -> generating -> handshaking -> dispatching -> evaluating -> feedback
// -> cleanup -> settling -> done, with any phase able to fall to aborted.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseGenerating    Phase = "generating"
	PhaseHandshaking   Phase = "handshaking"
	PhaseDispatching   Phase = "dispatching"
	PhaseEvaluating    Phase = "evaluating"
	PhaseFeedback      Phase = "feedback"
	PhaseCleanup       Phase = "cleanup"
	PhaseSettling      Phase = "settling"
	PhaseDone          Phase = "done"
	PhaseAborted       Phase = "aborted"
)

// phaseOrder gives every phase except aborted its position in the pipeline, so
// Round.Advance can reject out-of-order transitions.
var phaseOrder = map[Phase]int{
	PhaseInit:       0,
	PhaseGenerating:  1,
	PhaseHandshaking: 2,
	PhaseDispatching: 3,
	PhaseEvaluating:  4,
	PhaseFeedback:    5,
	PhaseCleanup:     6,
	PhaseSettling:    7,
	PhaseDone:        8,
}

// Round owns all per-round mutable state: the task list, the active miner
// set, every transport response and validation outcome collected so far, and
// the current phase. A Round is created when the Round Gate fires and
// destroyed after settlement; exactly one Round is in flight at a time.
type Round struct {
	mu sync.RWMutex

	RoundID     string
	StartBlock  uint64
	Epoch       uint64
	phase       Phase
	TaskList    []TaskSpec
	ActiveUIDs  mapset.Set[int64]

	Responses     map[int64]map[string]TaskResponse
	Outcomes      map[int64]map[string]ValidationOutcome
	FinalScores   map[int64]float64
	MinerVersions map[int64]string
	MinerCapacity map[int64]int
}

// NewRound constructs a fresh Round in the init phase.
func NewRound(roundID string, startBlock, epoch uint64) *Round {
	return &Round{
		RoundID:       roundID,
		StartBlock:    startBlock,
		Epoch:         epoch,
		phase:         PhaseInit,
		ActiveUIDs:    mapset.NewSet[int64](),
		Responses:     make(map[int64]map[string]TaskResponse),
		Outcomes:      make(map[int64]map[string]ValidationOutcome),
		FinalScores:   make(map[int64]float64),
		MinerVersions: make(map[int64]string),
		MinerCapacity: make(map[int64]int),
	}
}

// Phase returns the round's current phase.
func (r *Round) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// Advance moves the round to the next phase. It refuses to move a round
// backward, and refuses any transition once the round is in a terminal
// state (done/aborted), satisfying the "phase transitions are monotonic"
// testable property. Aborting is always allowed from a non-terminal phase.
func (r *Round) Advance(next Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseDone || r.phase == PhaseAborted {
		return fmt.Errorf("round %s: cannot leave terminal phase %s", r.RoundID, r.phase)
	}
	if next == PhaseAborted {
		r.phase = PhaseAborted
		return nil
	}
	curOrder, curOK := phaseOrder[r.phase]
	nextOrder, nextOK := phaseOrder[next]
	if !curOK || !nextOK || nextOrder <= curOrder {
		return fmt.Errorf("round %s: illegal transition %s -> %s", r.RoundID, r.phase, next)
	}
	r.phase = next
	return nil
}

// RecordResponse stores a dispatcher reply for (uid, task_id).
func (r *Round) RecordResponse(resp TaskResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Responses[resp.UID] == nil {
		r.Responses[resp.UID] = make(map[string]TaskResponse)
	}
	r.Responses[resp.UID][resp.TaskID] = resp
}

// RecordOutcome stores an evaluator outcome for (uid, task_id).
func (r *Round) RecordOutcome(out ValidationOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Outcomes[out.UID] == nil {
		r.Outcomes[out.UID] = make(map[string]ValidationOutcome)
	}
	r.Outcomes[out.UID][out.TaskID] = out
}

// SetFinalScore records a miner's combined per-round score.
func (r *Round) SetFinalScore(uid int64, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinalScores[uid] = score
}

// Snapshot returns a read-only copy of the fields a Checkpoint needs.
func (r *Round) Snapshot() Checkpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	completed := 0
	for _, perTask := range r.Outcomes {
		completed += len(perTask)
	}
	scores := make(map[int64]float64, len(r.FinalScores))
	for k, v := range r.FinalScores {
		scores[k] = v
	}
	return Checkpoint{
		RoundID:         r.RoundID,
		Phase:           r.phase,
		TaskCount:       len(r.TaskList),
		ActiveUIDs:      r.ActiveUIDs.ToSlice(),
		TasksCompleted:  completed,
		Scores:          scores,
	}
}
