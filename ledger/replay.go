package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReplayEntry is one event materialized out of the ledger for offline
// inspection; it is never read by the orchestrator at runtime.
type ReplayEntry struct {
	Timestamp int64          `json:"ts"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
}

// ExportJSONL replays every record this Ledger instance has written, in
// append order, to a newline-delimited JSON file at path — the format a
// downstream database ingestion job expects, per the Python TaskLedger's own
// JSONL-per-line contract.
func (l *Ledger) ExportJSONL(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ledger: creating export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	l.mu.Lock()
	ids := append([]uint64(nil), l.ids...)
	l.mu.Unlock()

	for _, id := range ids {
		l.mu.Lock()
		data, err := l.store.Get(id)
		l.mu.Unlock()
		if err != nil {
			return fmt.Errorf("ledger: reading record %d: %w", id, err)
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("ledger: decoding record %d: %w", id, err)
		}
		entry := ReplayEntry{Timestamp: rec.Timestamp.Unix(), Event: rec.Event, Payload: rec.Payload}
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("ledger: encoding replay entry %d: %w", id, err)
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}
