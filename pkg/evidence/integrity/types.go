package integrity

import "time"

// Trigger identifies what caused a verification run.
type Trigger string

const (
	// TriggerSchedule marks a run started by the cron schedule.
	TriggerSchedule Trigger = "schedule"
	// TriggerFileChange marks a run started by an out-of-band change to
	// the persisted chain file.
	TriggerFileChange Trigger = "file_change"
	// TriggerManual marks a run requested explicitly (CLI, API, startup).
	TriggerManual Trigger = "manual"
)

// Checkpoint records the outcome of one verification run. The checkpoint
// history answers the audit question "when was the chain last verified, and
// what did verification find" without re-walking the chain.
type Checkpoint struct {
	ID         int64     `json:"id"`
	RunAt      time.Time `json:"run_at"`
	Trigger    Trigger   `json:"trigger"`
	Valid      bool      `json:"valid"`
	TotalNodes int       `json:"total_nodes"`
	IssueCount int       `json:"issue_count"`

	// TailHash is the record hash of the chain tail at verification time,
	// or "" for an empty chain.
	TailHash string `json:"tail_hash"`
}
