package validator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/transport"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// FeedbackCleanupPhase sends each scored miner its per-task feedback, then
// tells it the task can be cleaned up, stripping the sandbox's internal TAP
// identifier from the validation payload first since it's validator-only
// routing detail a miner has no use for. Work is bounded by
// Config.MinerConcurrency the same way dispatch and evaluation are, since a
// round can have as many (task, uid) feedback pairs as it has dispatch slots.
type FeedbackCleanupPhase struct{}

func (FeedbackCleanupPhase) Name() model.Phase { return model.PhaseFeedback }

func (p FeedbackCleanupPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()
	timeout := time.Duration(core.Config.TaskSynapseTimeoutSeconds * float64(time.Second))

	type job struct {
		task model.TaskSpec
		uid  int64
		out  model.ValidationOutcome
	}
	var jobs []job
	for _, task := range round.TaskList {
		for _, uid := range round.ActiveUIDs.ToSlice() {
			out, ok := round.Outcomes[uid][task.TaskID]
			if !ok {
				continue
			}
			if _, ok := core.Metagraph.Identity(uid); !ok {
				continue
			}
			jobs = append(jobs, job{task: task, uid: uid, out: out})
		}
	}

	concurrency := core.Config.MinerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)
	var acked int64

	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			id, ok := core.Metagraph.Identity(j.uid)
			if !ok || !id.HasAddress() {
				return nil
			}
			target := transport.Target{UID: j.uid, NetworkAddress: id.NetworkAddress}

			fbReq := transport.Feedback{
				Version:        "1",
				RoundID:        round.RoundID,
				TaskID:         j.task.TaskID,
				MinerUID:       j.uid,
				Score:          j.out.FinalScore,
				LatencySeconds: j.out.LatencySeconds,
				Suggestions:    suggestionsFor(j.out),
			}
			results := transport.Fanout[transport.Feedback, transport.FeedbackReply](
				gctx, core.Transport, []transport.Target{target}, "/feedback", fbReq, timeout, 1,
			)
			if len(results) == 1 && results[0].Reply != nil && results[0].Reply.Acknowledged {
				atomic.AddInt64(&acked, 1)
			}

			cleanupReq := transport.Cleanup{
				Version:            "1",
				TaskID:             j.task.TaskID,
				ValidationResponse: sanitizedValidationPayload(j.out),
			}
			transport.Fanout[transport.Cleanup, transport.CleanupReply](
				gctx, core.Transport, []transport.Target{target}, "/cleanup", cleanupReq, timeout, 1,
			)
			return nil
		})
	}
	_ = g.Wait()

	if core.Metrics != nil {
		core.Metrics.FeedbackTimer.UpdateSince(start)
	}

	core.writeLedger("feedback_complete", map[string]any{
		"round_id": round.RoundID,
		"acked":    atomic.LoadInt64(&acked),
	}, time.Now())
	core.publish(round.RoundID, model.PhaseFeedback, fmt.Sprintf("feedback acked by %d", acked), nil)
	log.Debug("feedback/cleanup complete", "round_id", round.RoundID, "acked", acked)
	return nil
}

// sanitizedValidationPayload builds the cleanup message's validation_response
// field from a ValidationOutcome, excluding any tap identifier the same way
// the dispatch loop pops "tap" from the payload before sending TaskCleanupSynapse.
func sanitizedValidationPayload(out model.ValidationOutcome) map[string]any {
	return map[string]any{
		"task_id":     out.TaskID,
		"status_code": string(out.StatusCode),
		"api_score":   out.APIScore,
		"final_score": out.FinalScore,
		// tap intentionally omitted: validator-internal sandbox routing detail.
	}
}

// suggestionsFor turns a validation outcome's status code into a short list
// of human-readable hints a miner can act on. It never leaks sandbox
// internals (TAP, log paths) — only what the miner itself can fix.
func suggestionsFor(out model.ValidationOutcome) []string {
	switch out.StatusCode {
	case model.StatusNoResponse:
		return []string{"no reply was received for this task before the synapse timeout"}
	case model.StatusNoSubmissionZip:
		return []string{"reply acknowledged the task but carried no workspace archive"}
	case model.StatusMissingInvariant:
		return []string{"submission validated 0 invariants, check the terraform plan output"}
	case model.StatusAPIUnhealthy:
		return []string{"sandbox was unhealthy when this submission was evaluated, it will be retried next round"}
	case model.StatusAPIError:
		msg := "sandbox validation failed"
		if out.Message != "" {
			msg = fmt.Sprintf("sandbox validation failed: %s", out.Message)
		}
		return []string{msg}
	case model.StatusAPIReturnedNone:
		return []string{"sandbox returned no result for this submission"}
	case model.StatusValidated:
		if out.APIScore == 0 {
			return []string{"submission validated but scored 0, check invariants against the task prompt"}
		}
		return nil
	default:
		return nil
	}
}
