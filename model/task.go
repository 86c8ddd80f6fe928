// Package model defines the data types shared across the round orchestration
// core: tasks, miner identities, transport responses, validation outcomes,
// and the round itself.
package model

// TaskSpec is one provisioning task generated for a round. The prompt is the
// only field transmitted to miners; Invariants must never leave the
// validator process.
type TaskSpec struct {
	TaskID     string         `json:"task_id"`
	Provider   string         `json:"provider"`
	Kind       string         `json:"kind"`
	Prompt     string         `json:"prompt"`
	Params     map[string]any `json:"params"`
	Policy     TaskPolicy     `json:"policy"`
	VerifyPlan VerifyPlan     `json:"verify_plan"`
}

// TaskPolicy captures the cost tier and constraints a generated task carries.
type TaskPolicy struct {
	CostTier    string         `json:"cost_tier"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

// VerifyPlan describes how the sandbox should verify a submission.
type VerifyPlan struct {
	Kind  string   `json:"kind"`
	Steps []string `json:"steps,omitempty"`
}

// Invariants extracts the canonical, hidden invariant list from a task's
// params. Per spec, this lives at params["task"]["invariants"] and is the
// only part of params the facade guarantees exists before a task is usable.
func (t TaskSpec) Invariants() []any {
	task, ok := t.Params["task"].(map[string]any)
	if !ok {
		return nil
	}
	inv, _ := task["invariants"].([]any)
	return inv
}

// HasInvariants reports whether the task carries at least one invariant.
func (t TaskSpec) HasInvariants() bool {
	return len(t.Invariants()) > 0
}

// PromptOnly returns the subset of the task that is safe to transmit to a
// miner: task_id and prompt, nothing else. Callers must use this (never the
// TaskSpec itself) when constructing a Task transport message.
func (t TaskSpec) PromptOnly() (taskID, prompt string) {
	return t.TaskID, t.Prompt
}
