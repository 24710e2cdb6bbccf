package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePollDispatch pushes a registrar's pending poll messages to
	// its configured notification endpoint.
	TaskTypePollDispatch = "poll:dispatch"
	// TaskTypeLedgerIntegrity runs the read-only billing ledger scan.
	TaskTypeLedgerIntegrity = "ledger:integrity"
)

// PollDispatchPayload identifies the registrar whose queue to dispatch.
type PollDispatchPayload struct {
	RegistrarID string `json:"registrar_id"`
}

// NewPollDispatchTask constructs an Asynq task.
func NewPollDispatchTask(payload PollDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePollDispatch, data), nil
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLedgerIntegrity, nil)
}
