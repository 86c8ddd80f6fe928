package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// Clock exposes the chain-derived timing the Round Gate needs: the current
// block height and the subnet's tempo (blocks per epoch), matching
// DEFAULT_TEMPO / self.subtensor.tempo(netuid) in the Python validator.
type Clock struct {
	client Client
	netuid uint16

	defaultTempo uint64
}

// NewClock builds a Clock. defaultTempo is used when the chain client's
// Tempo call fails, the same fallback behaviour as the Python validator's
// `tempo = DEFAULT_TEMPO` before the best-effort subtensor lookup.
func NewClock(client Client, netuid uint16, defaultTempo uint64) *Clock {
	return &Clock{client: client, netuid: netuid, defaultTempo: defaultTempo}
}

// CurrentBlock returns the chain's current block height.
func (c *Clock) CurrentBlock() (uint64, error) {
	return c.client.CurrentBlock()
}

// Tempo returns the subnet's tempo in blocks, falling back to defaultTempo on
// error rather than failing the round outright.
func (c *Clock) Tempo() uint64 {
	t, err := c.client.Tempo(c.netuid)
	if err != nil {
		log.Debug("tempo lookup failed, using default", "err", err, "default", c.defaultTempo)
		return c.defaultTempo
	}
	return t
}

// RoundDurationBlocks computes max(1, roundSizeEpochs*tempo - safetyBufferEpochs*tempo),
// the same formula the Python validator uses to size one round in blocks.
func RoundDurationBlocks(roundSizeEpochs, safetyBufferEpochs, tempo uint64) uint64 {
	if safetyBufferEpochs >= roundSizeEpochs {
		return 1
	}
	d := roundSizeEpochs*tempo - safetyBufferEpochs*tempo
	if d < 1 {
		return 1
	}
	return d
}

// ResyncLoop periodically calls Resync until ctx is cancelled. It is a
// single-threaded loop keyed off a timestamp check rather than a lock, so a
// slow resync never blocks readers of the Metagraph's already-cached state.
func ResyncLoop(ctx context.Context, mg *Metagraph, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := mg.Resync(); err != nil {
		log.Warn("initial metagraph resync failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(mg.LastSync()) < interval/2 {
				continue
			}
			if err := mg.Resync(); err != nil {
				log.Warn("metagraph resync failed", "err", err)
			}
		}
	}
}
