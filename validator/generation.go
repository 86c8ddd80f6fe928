package validator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/model"
)

// taskPool is the pre-generation buffer the facade refills in the
// background once its depth drops below half of its target size, so a
// round's generation phase usually just drains already-made tasks instead
// of blocking on TaskSource.Generate synchronously.
type taskPool struct {
	mu      sync.Mutex
	target  int
	items   []model.TaskSpec
	filling bool
}

func newTaskPool(target int) *taskPool {
	return &taskPool{target: target}
}

func (p *taskPool) take(n int) []model.TaskSpec {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.items) {
		n = len(p.items)
	}
	out := append([]model.TaskSpec(nil), p.items[:n]...)
	p.items = p.items[n:]
	return out
}

func (p *taskPool) depth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *taskPool) needsRefill() bool {
	return p.depth() < p.target/2
}

func (p *taskPool) tryStartFill() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.filling {
		return false
	}
	p.filling = true
	return true
}

func (p *taskPool) finishFill(produced []model.TaskSpec) {
	p.mu.Lock()
	p.items = append(p.items, produced...)
	p.filling = false
	p.mu.Unlock()
}

// generateValid retries core.Tasks.Generate up to cfg.MaxGenerationTries
// times, sleeping cfg.GenerationRetrySleepSeconds between attempts, until it
// produces a task carrying at least one invariant. Tasks without invariants
// can never be scored, so the facade never hands one to a round.
func generateValid(ctx context.Context, core *Core) (model.TaskSpec, error) {
	cfg := core.Config
	maxTries := cfg.MaxGenerationTries
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	for attempt := 0; attempt < maxTries; attempt++ {
		task, err := core.Tasks.Generate(ctx)
		if err != nil {
			lastErr = err
		} else if task.HasInvariants() {
			return task, nil
		} else {
			lastErr = fmt.Errorf("generated task %s carries no invariants", task.TaskID)
		}

		if attempt < maxTries-1 {
			select {
			case <-ctx.Done():
				return model.TaskSpec{}, ctx.Err()
			case <-time.After(time.Duration(cfg.GenerationRetrySleepSeconds * float64(time.Second))):
			}
		}
	}
	return model.TaskSpec{}, fmt.Errorf("validator: exhausted %d generation attempts: %w", maxTries, lastErr)
}

// backgroundRefill tops the pool up to its target depth. It is started as a
// detached goroutine whenever the pool drops below half-full; tryStartFill
// ensures only one refill runs at a time.
func backgroundRefill(core *Core, pool *taskPool) {
	if !pool.tryStartFill() {
		return
	}
	go func() {
		ctx := context.Background()
		var produced []model.TaskSpec
		for pool.depth()+len(produced) < pool.target {
			task, err := generateValid(ctx, core)
			if err != nil {
				log.Warn("validator: background task pool refill attempt failed", "err", err)
				break
			}
			produced = append(produced, task)
		}
		pool.finishFill(produced)
	}()
}

// TaskGenerationPhase selects Config.TasksPerRound tasks for the round,
// either draining the pre-generated pool (refilling it in the background
// when depleted) or generating synchronously when pooling is disabled.
type TaskGenerationPhase struct{}

func (TaskGenerationPhase) Name() model.Phase { return model.PhaseGenerating }

func (p TaskGenerationPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()
	cfg := core.Config
	want := cfg.TasksPerRound
	if want <= 0 {
		return model.Abort(model.PhaseGenerating, fmt.Errorf("tasks per round is %d", want))
	}

	var tasks []model.TaskSpec
	if cfg.PreGeneratedTasks > 0 {
		if core.pool == nil {
			core.pool = newTaskPool(cfg.PreGeneratedTasks)
		}
		tasks = core.pool.take(want)
		if core.pool.needsRefill() {
			backgroundRefill(core, core.pool)
		}
	}

	for len(tasks) < want {
		task, err := generateValid(ctx, core)
		if err != nil {
			return model.Abort(model.PhaseGenerating, err)
		}
		tasks = append(tasks, task)
	}

	round.TaskList = tasks
	for _, t := range tasks {
		core.writeLedger("task_generated", map[string]any{
			"round_id": round.RoundID,
			"task_id":  t.TaskID,
			"provider": t.Provider,
			"kind":     t.Kind,
		}, time.Now())
	}
	core.writeLedger("round_tasks_selected", map[string]any{
		"round_id":   round.RoundID,
		"task_count": len(tasks),
	}, time.Now())
	core.writeLedger("validator_meta", map[string]any{
		"round_id":     round.RoundID,
		"hotkey":       core.Hotkey.String(),
		"tasks_source": "pool_or_live",
	}, time.Now())

	if core.Metrics != nil {
		core.Metrics.GenerationTimer.UpdateSince(start)
		core.Metrics.TasksGenerated.Inc(int64(len(tasks)))
	}
	core.publish(round.RoundID, model.PhaseGenerating, fmt.Sprintf("generated %d tasks", len(tasks)), nil)
	return nil
}
