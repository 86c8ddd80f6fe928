package config

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fsnotify/fsnotify"
)

// Reloadable is the subset of Config the round loop is allowed to pick up
// mid-flight, applied only at a round boundary so an in-progress round never
// observes a config change partway through a phase.
type Reloadable struct {
	RoundCadenceSeconds float64
	TasksPerRound       int
	APIScoreWeight      float64
	LatencyScoreWeight  float64
	LogLevel            string
	MinerFilterExpr     string
}

func (c Config) reloadable() Reloadable {
	return Reloadable{
		RoundCadenceSeconds: c.RoundCadenceSeconds,
		TasksPerRound:       c.TasksPerRound,
		APIScoreWeight:      c.APIScoreWeight,
		LatencyScoreWeight:  c.LatencyScoreWeight,
		LogLevel:            c.LogLevel,
		MinerFilterExpr:     c.MinerFilterExpr,
	}
}

// Reloader watches the config file named by Config.ConfigFile and makes the
// most recently parsed Reloadable available to the round loop. The round
// loop calls Pending at a phase boundary (never mid-phase) and swaps it in.
type Reloader struct {
	mu      sync.Mutex
	base    Config
	pending Reloadable
	watcher *fsnotify.Watcher
}

// NewReloader starts watching base.ConfigFile, if one is set. With no file
// configured it returns a Reloader whose Pending always reports base's own
// values, i.e. a no-op watcher.
func NewReloader(base Config) (*Reloader, error) {
	r := &Reloader{base: base, pending: base.reloadable()}
	if base.ConfigFile == "" {
		return r, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(base.ConfigFile); err != nil {
		w.Close()
		return nil, err
	}
	r.watcher = w

	go r.watch()
	return r, nil
}

func (r *Reloader) watch() {
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}

func (r *Reloader) reload() {
	cfg := r.base
	if err := applyFile(&cfg, cfg.ConfigFile); err != nil {
		log.Warn("config hot reload failed, keeping previous values", "file", cfg.ConfigFile, "err", err)
		return
	}
	cfg.Normalize()

	r.mu.Lock()
	r.pending = cfg.reloadable()
	r.mu.Unlock()
	log.Info("config reload staged, will apply at next round boundary", "file", cfg.ConfigFile)
}

// Pending returns the most recently staged Reloadable values. Call this only
// between rounds.
func (r *Reloader) Pending() Reloadable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Close stops the underlying filesystem watch, if any.
func (r *Reloader) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}
