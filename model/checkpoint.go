package model

import "time"

// Checkpoint is the per-round JSON snapshot written at phase boundaries and
// deleted on successful settlement. It is never auto-resumed by the core; a
// restarted validator always starts a fresh round, and the checkpoint is
// left on disk purely for operator inspection.
type Checkpoint struct {
	RoundID        string           `json:"round_id"`
	Phase          Phase            `json:"phase"`
	Timestamp      time.Time        `json:"timestamp"`
	TaskCount      int              `json:"task_count"`
	ActiveUIDs     []int64          `json:"active_uids"`
	TasksCompleted int              `json:"tasks_completed"`
	Scores         map[int64]float64 `json:"scores"`
}
