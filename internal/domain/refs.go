package domain

import "fmt"

// Deterministic reference ids for task-triggered side effects. Deriving the
// idempotency key from the task id makes every money or reputation movement
// replay-safe: retrying a task operation replays the same reference ids and
// each inner ledger call degrades to its idempotent branch.

// TaskCreateRef is the reference id for the escrow debit at task creation.
func TaskCreateRef(taskID string) string {
	return fmt.Sprintf("bank:task_create:%s", taskID)
}

// TaskCompleteRef is the reference id for the executor credit at completion.
func TaskCompleteRef(taskID string) string {
	return fmt.Sprintf("bank:task_complete:%s", taskID)
}

// TaskCancelRef is the reference id for the refund reversal at cancellation.
func TaskCancelRef(taskID string) string {
	return fmt.Sprintf("bank:task_cancel:%s", taskID)
}

// RepTaskCompleteRef is the reference id for the reputation earned at
// completion.
func RepTaskCompleteRef(taskID string) string {
	return fmt.Sprintf("rep:task_complete:%s", taskID)
}
