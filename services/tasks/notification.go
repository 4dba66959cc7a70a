package tasks

import (
	"encoding/json"
	"time"

	"hireflow/models"

	"github.com/hibiken/asynq"
)

const TypeSendNotification = "notification:send"

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// NewNotificationTask wraps a push payload. Urgent pushes go to the critical
// queue and are dropped by the worker once the payload expires.
func NewNotificationTask(payload models.NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendNotification, b)

	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Queue(QueueDefault)}
	if payload.Urgent {
		opts = []asynq.Option{asynq.MaxRetry(2), asynq.Queue(QueueCritical)}
	}
	if payload.ExpiresAt != nil {
		opts = append(opts, asynq.Deadline(*payload.ExpiresAt))
	}
	return task, opts, nil
}

// ParseNotificationTask decodes a task built by NewNotificationTask.
func ParseNotificationTask(task *asynq.Task) (models.NotificationPayload, error) {
	var p models.NotificationPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}

// Expired reports whether the payload should no longer be delivered.
func Expired(p models.NotificationPayload, now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}
