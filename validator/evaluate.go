package validator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/config"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/sandboxclient"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// EvaluationPhase submits every responding miner's workspace to the sandbox
// validation service, combines correctness and latency into one final
// score per uid, and records a model.ValidationOutcome for each (uid, task).
type EvaluationPhase struct{}

func (EvaluationPhase) Name() model.Phase { return model.PhaseEvaluating }

// scoreSlot is one miner's per-round latency sample: its average latency
// across every task it was evaluated on, not a per-task sample. Latency
// scoring always runs at this granularity, matching the Python reference's
// "average latency across all tasks, then rank miners" order of operations.
type scoreSlot struct {
	uid     int64
	latency float64
}

func (p EvaluationPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()
	cfg := core.Config

	type job struct {
		uid  int64
		task model.TaskSpec
	}
	var jobs []job
	for _, task := range round.TaskList {
		for _, uid := range round.ActiveUIDs.ToSlice() {
			jobs = append(jobs, job{uid: uid, task: task})
		}
	}
	if len(jobs) == 0 {
		return model.Abort(model.PhaseEvaluating, fmt.Errorf("no (uid, task) pairs to evaluate"))
	}

	sem := semaphore.NewWeighted(int64(cfg.ValidationConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			out := p.evaluateOne(gctx, core, round, j.uid, j.task)
			round.RecordOutcome(out)
			return nil
		})
	}
	_ = g.Wait()

	combineScores(core, round)

	if core.Metrics != nil {
		core.Metrics.EvaluationTimer.UpdateSince(start)
	}
	log.Debug("evaluation phase complete", "round_id", round.RoundID, "slots", len(jobs), "elapsed", time.Since(start))

	core.writeLedger("evaluation_complete", map[string]any{
		"round_id": round.RoundID,
		"slots":    len(jobs),
	}, time.Now())
	core.publish(round.RoundID, model.PhaseEvaluating, fmt.Sprintf("evaluated %d slots", len(jobs)), nil)
	return nil
}

// evaluateOne scores a single (uid, task) pair. It never returns an error:
// every failure mode (no response, declined task, disabled/unhealthy
// sandbox, API error) yields a zero-scored ValidationOutcome with a
// StatusCode describing why, so one miner's failure can never abort the
// round.
func (p EvaluationPhase) evaluateOne(ctx context.Context, core *Core, round *model.Round, uid int64, task model.TaskSpec) model.ValidationOutcome {
	out := model.ValidationOutcome{UID: uid, TaskID: task.TaskID}

	resp, ok := round.Responses[uid][task.TaskID]
	if !ok || resp.DeliveryStatus != model.DeliveryOK || resp.Declined() {
		out.StatusCode = model.StatusNoResponse
		if ok && resp.Declined() {
			out.StatusCode = model.StatusNoSubmissionZip
		}
		return out
	}
	out.LatencySeconds = resp.LatencySeconds

	if !core.Config.ValidationAPIEnabled {
		out.StatusCode = model.StatusAPIDisabled
		return out
	}
	if !task.HasInvariants() {
		out.StatusCode = model.StatusMissingInvariant
		return out
	}

	health, err := core.Sandbox.Health(ctx)
	if err != nil || !health.Healthy() {
		out.StatusCode = model.StatusAPIUnhealthy
		out.Message = fmt.Sprintf("sandbox unhealthy: %v", err)
		return out
	}

	workspacePath, cleanup, err := sandboxclient.MaterializeWorkspace("", uid, task.TaskID, resp.WorkspaceZip)
	if err != nil {
		out.StatusCode = model.StatusAPIError
		out.Message = fmt.Sprintf("materializing workspace: %v", err)
		return out
	}
	defer cleanup()

	req := model.SandboxValidateRequest{
		WorkspaceZipPath: workspacePath,
		TaskJSON: map[string]any{
			"task_id":    task.TaskID,
			"invariants": task.Invariants(),
		},
		TimeoutS: int(core.Config.ValidationAPITimeout.Seconds()),
	}
	validated, retries, err := core.Sandbox.Validate(ctx, req)
	out.RetryCount = retries
	if core.Metrics != nil && retries > 0 {
		core.Metrics.SandboxRetries.Inc(int64(retries))
	}
	if err != nil {
		out.StatusCode = model.StatusAPIError
		out.Message = err.Error()
		if core.Metrics != nil {
			core.Metrics.SandboxValidateFailed.Inc(1)
		}
		return out
	}
	if validated == nil {
		out.StatusCode = model.StatusAPIReturnedNone
		if core.Metrics != nil {
			core.Metrics.SandboxValidateFailed.Inc(1)
		}
		return out
	}

	out.APIScore = validated.Result.Score
	out.ValidationJobID = validated.JobID
	out.Message = validated.Result.Msg
	out.StatusCode = model.StatusValidated
	out.FailClosed()
	if core.Metrics != nil {
		core.Metrics.SandboxValidateOK.Inc(1)
	}
	return out
}

// combineScores computes each miner's single per-round final score: average
// its api_score across every task it was evaluated on, average its latency
// across every task that actually got a timed response, rank those per-uid
// averages against each other, and combine. Fails closed per uid: an
// average api_score of zero yields a final score of zero regardless of how
// fast the miner responded.
func combineScores(core *Core, round *model.Round) {
	cfg := core.Config
	wAPI, wLat := cfg.NormalizedWeights()

	apiScoresByUID := make(map[int64][]float64, len(round.Outcomes))
	latenciesByUID := make(map[int64][]float64, len(round.Outcomes))
	for uid, perTask := range round.Outcomes {
		for _, out := range perTask {
			apiScoresByUID[uid] = append(apiScoresByUID[uid], out.APIScore)
			if out.LatencySeconds > 0 {
				latenciesByUID[uid] = append(latenciesByUID[uid], out.LatencySeconds)
			}
		}
	}

	var slots []scoreSlot
	for uid, lats := range latenciesByUID {
		slots = append(slots, scoreSlot{uid: uid, latency: mean(lats)})
	}
	latencyScores := latencyScoresFor(cfg, slots)

	for uid, apiScores := range apiScoresByUID {
		apiAvg := mean(apiScores)

		combined := 0.0
		if apiAvg > 0 {
			combined = clamp(wAPI*apiAvg+wLat*latencyScores[uid], 0, 1)
		}
		round.SetFinalScore(uid, combined)

		for _, out := range round.Outcomes[uid] {
			out.FinalScore = combined
			round.RecordOutcome(out)
		}
	}
}

// latencyScoresFor computes the per-uid latency component, switching
// between the normal min/max-normalized mode and the tie-spread mode when
// every observed average latency is within LatencyTieEpsilonS of each
// other.
func latencyScoresFor(cfg config.Config, slots []scoreSlot) map[int64]float64 {
	out := make(map[int64]float64, len(slots))
	if !cfg.LatencyScoringEnabled || len(slots) == 0 {
		for _, s := range slots {
			out[s.uid] = 0
		}
		return out
	}

	latencies := make([]float64, len(slots))
	for i, s := range slots {
		latencies[i] = s.latency
	}
	minLat, maxLat := latencies[0], latencies[0]
	for _, l := range latencies {
		if l < minLat {
			minLat = l
		}
		if l > maxLat {
			maxLat = l
		}
	}
	latRange := maxLat - minLat

	tieMode := len(slots) >= 2 && latRange <= cfg.LatencyTieEpsilonS && cfg.LatencyTiePenaltyMax > 0
	if tieMode {
		ranked := append([]scoreSlot(nil), slots...)
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].latency != ranked[j].latency {
				return ranked[i].latency < ranked[j].latency
			}
			return ranked[i].uid < ranked[j].uid
		})
		n := len(ranked)
		for rank, s := range ranked {
			frac := 0.0
			if n > 1 {
				frac = float64(rank) / float64(n-1)
			}
			out[s.uid] = clamp(1-frac*cfg.LatencyTiePenaltyMax, 0, 1)
		}
		return out
	}

	for _, s := range slots {
		delta := clamp((s.latency-minLat)/math.Max(1e-9, latRange), 0, 1)
		out[s.uid] = math.Pow(1-delta, cfg.LatencyScoreGamma)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
