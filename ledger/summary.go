package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// RoundSummary is the per-round digest written alongside the ledger: enough
// to answer "how did round X go" without replaying the whole event log.
// Grounded on the fields the evaluation/settlement mixins log at
// round end (active miner count, per-uid scores, evaluation duration).
type RoundSummary struct {
	RoundID        string             `json:"round_id" yaml:"round_id"`
	StartedAt      time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time          `json:"finished_at" yaml:"finished_at"`
	Phase          string             `json:"phase" yaml:"phase"`
	TaskCount      int                `json:"task_count" yaml:"task_count"`
	ActiveMiners   int                `json:"active_miners" yaml:"active_miners"`
	Scores         map[int64]float64  `json:"scores" yaml:"scores"`
	SettledWeights map[int64]float64  `json:"settled_weights,omitempty" yaml:"settled_weights,omitempty"`
}

// WriteSummary writes sum as both RoundID.json and RoundID.yaml under dir,
// so an operator can pick whichever format their tooling prefers, and also
// refreshes latest.json/latest.yaml so a status command never has to scan
// the directory to find the most recent round.
func WriteSummary(dir string, sum RoundSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ledger: creating summary dir: %w", err)
	}

	jsonData, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshaling summary json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sum.RoundID+".json"), jsonData, 0o644); err != nil {
		return fmt.Errorf("ledger: writing summary json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "latest.json"), jsonData, 0o644); err != nil {
		return fmt.Errorf("ledger: writing latest summary json: %w", err)
	}

	yamlData, err := yaml.Marshal(sum)
	if err != nil {
		return fmt.Errorf("ledger: marshaling summary yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sum.RoundID+".yaml"), yamlData, 0o644); err != nil {
		return fmt.Errorf("ledger: writing summary yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "latest.yaml"), yamlData, 0o644); err != nil {
		return fmt.Errorf("ledger: writing latest summary yaml: %w", err)
	}
	return nil
}

// ReadSummary loads a single round summary JSON file back into memory, used
// by the status CLI and the observability SummaryProvider.
func ReadSummary(path string) (RoundSummary, error) {
	var sum RoundSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return sum, fmt.Errorf("ledger: reading summary: %w", err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		return sum, fmt.Errorf("ledger: parsing summary: %w", err)
	}
	return sum, nil
}

// ListSummaries returns every RoundID.json under dir (excluding latest.json),
// sorted by FinishedAt descending, most recent first.
func ListSummaries(dir string) ([]RoundSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger: listing summary dir: %w", err)
	}
	var out []RoundSummary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || name == "latest.json" {
			continue
		}
		sum, err := ReadSummary(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	return out, nil
}
