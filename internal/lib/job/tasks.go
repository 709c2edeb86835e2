package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names route tasks to handlers.
const (
	TaskAutoMove     = "todos:automove"
	TaskReconcile    = "store:reconcile"
	TaskWeeklyReport = "email:weekly_report"
	TaskWelcome      = "email:welcome"
)

// WelcomeEmailPayload is the payload for the welcome email task.
type WelcomeEmailPayload struct {
	To       string `json:"to"`
	Username string `json:"username"`
}

// NewAutoMoveTask moves overdue incomplete tasks to the current day for
// every user that has the feature enabled.
func NewAutoMoveTask() *asynq.Task {
	return asynq.NewTask(
		TaskAutoMove,
		nil,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(5*time.Minute),
	)
}

// NewReconcileTask repairs list and index drift across the store.
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(
		TaskReconcile,
		nil,
		asynq.MaxRetry(1),
		asynq.Queue("low"),
		asynq.Timeout(10*time.Minute),
	)
}

// NewWeeklyReportTask sends the weekly summary to every subscribed user.
func NewWeeklyReportTask() *asynq.Task {
	return asynq.NewTask(
		TaskWeeklyReport,
		nil,
		asynq.MaxRetry(2),
		asynq.Queue("low"),
		asynq.Timeout(10*time.Minute),
	)
}

// NewWelcomeEmailTask builds the task that emails a new account.
func NewWelcomeEmailTask(to, username string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		To:       to,
		Username: username,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("critical"),
		asynq.Timeout(30*time.Second),
	), nil
}
