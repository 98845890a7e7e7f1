package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLedgerAudit replays the movement log and reports balances
	// that drifted from the cached stock table.
	TaskTypeLedgerAudit = "ledger:audit"
	// TaskTypeLedgerRebuild replays the movement log and rewrites the
	// cached stock table from scratch.
	TaskTypeLedgerRebuild = "ledger:rebuild"
	// TaskTypeSnapshotWarm pre-fetches the warehouse feed so the first
	// dashboard hit after a cold cache stays fast.
	TaskTypeSnapshotWarm = "snapshot:warm"
)

// LedgerAuditPayload parameterizes an audit run.
type LedgerAuditPayload struct {
	// Rebuild applies the replayed balances instead of only reporting drift.
	Rebuild bool `json:"rebuild"`
}

// SnapshotWarmPayload names the warehouse to warm.
type SnapshotWarmPayload struct {
	WarehouseRef string `json:"warehouse_ref"`
}

// NewLedgerAuditTask constructs an audit task.
func NewLedgerAuditTask(payload LedgerAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	taskType := TaskTypeLedgerAudit
	if payload.Rebuild {
		taskType = TaskTypeLedgerRebuild
	}
	return asynq.NewTask(taskType, data), nil
}

// NewSnapshotWarmTask constructs a cache-warm task.
func NewSnapshotWarmTask(payload SnapshotWarmPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSnapshotWarm, data), nil
}
