package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/luxapientia/alphacore-sub000/model"
	"github.com/luxapientia/alphacore-sub000/transport"
)

// HandshakePhase probes every miner with a registered network address for
// liveness before dispatch, mirroring the Python handshake mixin's
// "skip validators without axons, query everyone else under a bounded
// semaphore" behaviour.
type HandshakePhase struct{}

func (HandshakePhase) Name() model.Phase { return model.PhaseHandshaking }

func (p HandshakePhase) Run(ctx context.Context, core *Core, round *model.Round) error {
	start := time.Now()
	uids := core.Metagraph.UIDs()
	targets := make([]transport.Target, 0, len(uids))
	for _, uid := range uids {
		id, ok := core.Metagraph.Identity(uid)
		if !ok || !id.HasAddress() {
			continue
		}
		if core.Filter != nil {
			match, err := core.Filter.Match(id)
			if err != nil {
				log.Warn("handshake: miner filter evaluation failed, including miner", "uid", uid, "err", err)
			} else if !match {
				continue
			}
		}
		targets = append(targets, transport.Target{UID: id.UID, NetworkAddress: id.NetworkAddress})
	}

	if len(targets) == 0 {
		return model.Abort(model.PhaseHandshaking, fmt.Errorf("no miners with a registered network address"))
	}

	req := transport.Handshake{
		Version:   "1",
		RoundID:   round.RoundID,
		Timestamp: time.Now().Unix(),
	}
	timeout := time.Duration(core.Config.HandshakeTimeoutSeconds * float64(time.Second))

	results := transport.Fanout[transport.Handshake, transport.HandshakeReply](
		ctx, core.Transport, targets, "/handshake", req, timeout, core.Config.MinerConcurrency,
	)

	alive := mapset.NewThreadUnsafeSet[int64]()
	completed := 0
	for _, res := range results {
		completed++
		if completed%5 == 0 {
			log.Debug("handshake: progress", "round_id", round.RoundID, "completed", completed, "total", len(results))
		}
		if res.Err != nil || res.Reply == nil {
			continue
		}
		round.MinerVersions[res.UID] = res.Reply.MinerVersion
		round.MinerCapacity[res.UID] = res.Reply.AvailableCapacity
		if res.Reply.IsReady {
			alive.Add(res.UID)
		}
	}

	round.ActiveUIDs = alive

	if core.Metrics != nil {
		core.Metrics.HandshakeTimer.UpdateSince(start)
		core.Metrics.MinersHandshaked.Update(float64(len(targets)))
		core.Metrics.MinersAlive.Update(float64(alive.Cardinality()))
	}

	core.writeLedger("handshake_complete", map[string]any{
		"round_id":   round.RoundID,
		"probed":     len(targets),
		"alive":      alive.Cardinality(),
		"alive_uids": alive.ToSlice(),
	}, time.Now())
	core.publish(round.RoundID, model.PhaseHandshaking, fmt.Sprintf("%d/%d miners alive", alive.Cardinality(), len(targets)), nil)

	if alive.Cardinality() == 0 {
		return model.Abort(model.PhaseHandshaking, fmt.Errorf("no miner reported ready after handshake"))
	}
	return nil
}
