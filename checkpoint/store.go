// Package checkpoint persists per-round snapshots so a crashed validator
// can be inspected after restart. The orchestrator never auto-resumes a
// round from a checkpoint; a restart always starts a fresh round, and the
// previous checkpoint is left on disk purely for operator inspection until
// GC removes it.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/cp"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
	"github.com/luxapientia/alphacore-sub000/model"
)

// Store manages checkpoint files under a single datadir, guarded by an
// exclusive process lock so two validator instances never write into the
// same directory concurrently.
type Store struct {
	dir  string
	lock *flock.Flock
}

// Open acquires an exclusive lock on dir and returns a Store over it. The
// lock is released by Close.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: creating dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("checkpoint: datadir %s is locked by another process", dir)
	}
	return &Store{dir: dir, lock: lock}, nil
}

// Close releases the datadir lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

func (s *Store) path(roundID string) string {
	return filepath.Join(s.dir, roundID+".json")
}

// Save writes cp as round_id.json, backing up any existing file of the same
// name first (cespare/cp is a plain, dependency-free byte-for-byte file
// copy, used here the same way geth uses it to snapshot chain config files
// before an in-place rewrite).
func (s *Store) Save(c model.Checkpoint) error {
	path := s.path(c.RoundID)
	if _, err := os.Stat(path); err == nil {
		if err := cp.CopyFile(path+".bak", path); err != nil {
			log.Warn("checkpoint: failed to back up previous checkpoint", "round_id", c.RoundID, "err", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: writing %s: %w", path, err)
	}
	return nil
}

// Load reads back the checkpoint for roundID, if present.
func (s *Store) Load(roundID string) (model.Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path(roundID))
	if os.IsNotExist(err) {
		return model.Checkpoint{}, false, nil
	}
	if err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("checkpoint: reading %s: %w", roundID, err)
	}
	var c model.Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("checkpoint: decoding %s: %w", roundID, err)
	}
	return c, true, nil
}

// Delete removes the checkpoint for roundID, called after a round settles
// successfully.
func (s *Store) Delete(roundID string) error {
	if err := os.Remove(s.path(roundID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns every checkpoint currently on disk, most recent first.
func (s *Store) List() ([]model.Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []model.Checkpoint
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		roundID := e.Name()[:len(e.Name())-len(".json")]
		c, ok, err := s.Load(roundID)
		if err != nil || !ok {
			continue
		}
		out = append(out, c)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Timestamp.After(out[i].Timestamp) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

// GC deletes every checkpoint older than maxAge, run once at startup the
// same way the Python validator's cleanup_old_checkpoints(max_age_hours=24)
// runs.
func (s *Store) GC(maxAge time.Duration) error {
	checkpoints, err := s.List()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, c := range checkpoints {
		if now.Sub(c.Timestamp) > maxAge {
			if err := s.Delete(c.RoundID); err != nil {
				log.Debug("checkpoint: gc failed to delete", "round_id", c.RoundID, "err", err)
				continue
			}
			log.Debug("checkpoint: gc deleted stale checkpoint", "round_id", c.RoundID, "age", now.Sub(c.Timestamp))
		}
	}
	return nil
}
