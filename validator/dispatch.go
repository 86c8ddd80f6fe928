package validator

import (
	"context"
	"encoding/base64"
	"hash/fnv"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/bloomfilter/v2"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/sandboxclient"
	"github.com/luxapientia/alphacore-sub000/transport"
)

// DispatchPhase sends every task to every active miner, bounded by
// Config.MinerConcurrency, and records one TaskResponse per (uid, task_id)
// pair, marking pairs without a usable reply as no-response. A miner that
// echoes back a task_id that doesn't match what it was sent is treated as
// having not responded at all.
type DispatchPhase struct{}

func (DispatchPhase) Name() model.Phase { return model.PhaseDispatching }

func (p DispatchPhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()
	if round.ActiveUIDs.Cardinality() == 0 {
		return model.Abort(model.PhaseDispatching, fmt.Errorf("no active miners to dispatch to"))
	}
	if len(round.TaskList) == 0 {
		return model.Abort(model.PhaseDispatching, fmt.Errorf("no tasks to dispatch"))
	}

	targets := make([]transport.Target, 0, round.ActiveUIDs.Cardinality())
	for _, uid := range round.ActiveUIDs.ToSlice() {
		id, ok := core.Metagraph.Identity(uid)
		if !ok || !id.HasAddress() {
			continue
		}
		targets = append(targets, transport.Target{UID: id.UID, NetworkAddress: id.NetworkAddress})
	}

	timeout := time.Duration(core.Config.TaskSynapseTimeoutSeconds * float64(time.Second))
	progressInterval := time.Duration(core.Config.DispatchProgressLogIntervalS * float64(time.Second))

	// seen guards against ever recording the same (uid, task_id) reply
	// twice, the same kind of duplicate-membership check geth's blobpool
	// runs before re-admitting a transaction hash it may have already seen.
	seen, err := bloomfilter.New(uint64(len(targets)*len(round.TaskList)*8+1024), 4)
	if err != nil {
		log.Warn("dispatch: failed to build dedup filter, proceeding without one", "err", err)
	}

	core.writeLedger("dispatch_start", map[string]any{
		"round_id": round.RoundID,
		"tasks":    len(round.TaskList),
		"targets":  len(targets),
	}, time.Now())

	lastLog := time.Now()
	for _, task := range round.TaskList {
		taskID, prompt := task.PromptOnly()
		req := transport.Task{Version: "1", TaskID: taskID, Prompt: prompt}

		results := transport.Fanout[transport.Task, transport.TaskReply](
			ctx, core.Transport, targets, "/task", req, timeout, core.Config.MinerConcurrency,
		)

		for _, res := range results {
			resp := model.TaskResponse{UID: res.UID, TaskID: taskID, LatencySeconds: res.Latency.Seconds()}

			switch {
			case res.Err != nil || res.Reply == nil:
				resp.DeliveryStatus = model.DeliveryNoResponse
			case res.Reply.TaskID != taskID:
				log.Debug("dispatch: discarding reply with mismatched task_id", "uid", res.UID, "expected", taskID, "got", res.Reply.TaskID)
				resp.DeliveryStatus = model.DeliveryNoResponse
			default:
				if duplicateReply(seen, res.UID, taskID) {
					if _, recorded := round.Responses[res.UID][taskID]; recorded {
						continue
					}
				}
				resp.DeliveryStatus = model.DeliveryOK
				resp.ResultSummary = res.Reply.ResultSummary
				resp.WorkspaceZipSHA256 = res.Reply.WorkspaceZipSHA256
				resp.WorkspaceZipSize = res.Reply.WorkspaceZipSize
				resp.Notes = res.Reply.Notes
				if res.Reply.WorkspaceZipB64 != "" {
					raw, err := base64.StdEncoding.DecodeString(res.Reply.WorkspaceZipB64)
					switch {
					case err != nil:
						log.Debug("dispatch: discarding reply with malformed base64 zip", "uid", res.UID, "task_id", taskID, "err", err)
					case sandboxclient.ValidateZipStructure(raw) != nil:
						log.Debug("dispatch: discarding reply with malformed zip archive", "uid", res.UID, "task_id", taskID)
					default:
						resp.WorkspaceZip = raw
					}
				}
			}
			round.RecordResponse(resp)
		}

		if time.Since(lastLog) >= progressInterval {
			log.Info("dispatch: progress", "round_id", round.RoundID, "task_id", taskID, "targets", len(targets))
			core.publish(round.RoundID, model.PhaseDispatching, fmt.Sprintf("dispatched task %s", taskID), nil)
			lastLog = time.Now()
		}
	}

	if core.Metrics != nil {
		core.Metrics.DispatchTimer.UpdateSince(start)
		core.Metrics.TasksDispatched.Inc(int64(len(round.TaskList) * len(targets)))
	}

	core.writeLedger("dispatch_complete", map[string]any{
		"round_id": round.RoundID,
	}, time.Now())
	return nil
}

// duplicateReply reports whether (uid, taskID) has already been recorded,
// using a bloom filter purely as a fast-path membership guard. Run confirms a
// positive against the round's recorded responses before skipping a reply,
// so a false positive never drops a reply that was not yet recorded.
func duplicateReply(filter *bloomfilter.Filter, uid int64, taskID string) bool {
	if filter == nil {
		return false
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", uid, taskID)
	sum := h.Sum64()
	if filter.Contains(sum) {
		return true
	}
	filter.Add(sum)
	return false
}
