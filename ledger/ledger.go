// Package ledger implements the validator's append-only round event log:
// task generation, handshake, dispatch, evaluation, and settlement events,
// one record per line, intended for offline ingestion rather than runtime
// reads by the orchestrator.
package ledger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/billy"
)

// record is one ledger entry. Timestamp is stamped by the caller (never
// time.Now() inside this package) so callers control clock sourcing.
type record struct {
	Timestamp time.Time      `json:"ts"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
}

const maxRecordSize = 1 << 20 // 1 MiB per event, generous for a round summary

// Ledger is an append-only event log backed by billy, the durable blob store
// go-ethereum's blobpool uses, repurposed here for small JSON event records
// instead of blob transactions. billy addresses
// entries by id rather than offering a built-in walk, so Ledger keeps its
// own append-ordered index of ids for ExportJSONL to replay.
type Ledger struct {
	mu    sync.Mutex
	store billy.Database
	ids   []uint64
}

// Open creates or reopens a billy-backed ledger rooted at dir.
func Open(dir string) (*Ledger, error) {
	store, err := billy.Open(billy.Options{Path: dir}, newSlotter(), nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening billy store: %w", err)
	}
	return &Ledger{store: store}, nil
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

// Write appends one event. It never returns an error to the caller's
// control flow path that matters (round orchestration) — callers that care
// about durability check the returned error explicitly, but a failed ledger
// write never aborts a round, matching the Python TaskLedger's
// "never fail validator execution due to telemetry" contract.
func (l *Ledger) Write(event string, payload map[string]any, at time.Time) error {
	rec := record{Timestamp: at, Event: event, Payload: payload}
	data, err := json.Marshal(rec)
	if err != nil {
		log.Warn("ledger: failed to marshal event, dropping", "event", event, "err", err)
		return err
	}

	if len(data) > maxRecordSize {
		log.Warn("ledger: event exceeds max record size, dropping", "event", event, "size", len(data))
		return fmt.Errorf("ledger: record too large: %d bytes", len(data))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	id, err := l.store.Put(data)
	if err != nil {
		log.Warn("ledger: failed to append event, dropping", "event", event, "err", err)
		return err
	}
	l.ids = append(l.ids, id)
	return nil
}

// newSlotter returns a billy shelf-size generator, the same shape as
// blobpool's own newSlotter: each call yields the next shelf's item size and
// whether it is the last shelf. Ledger records are small JSON blobs, so the
// shelf sizes are a fixed geometric ladder rather than blob-size-derived.
func newSlotter() func() (uint32, bool) {
	sizes := []uint32{256, 1024, 4096, 16384, 65536, maxRecordSize}
	i := 0
	return func() (uint32, bool) {
		shelf := sizes[i]
		i++
		return shelf, i >= len(sizes)
	}
}
