package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"hireflow/models"
	"hireflow/services/tasks"

	"github.com/hibiken/asynq"
)

// Notifier is how the core reaches people. Both calls only hand the message
// to a transport; delivery happens asynchronously.
type Notifier interface {
	// DeliverOffer sends the decision-required alert for an instant offer.
	DeliverOffer(ctx context.Context, offer models.BookingOffer) error
	NotifyUser(ctx context.Context, payload models.NotificationPayload) error
}

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier enqueues pushes for the notification worker.
type QueueNotifier struct {
	queue Enqueuer
}

func NewQueueNotifier(queue Enqueuer) (*QueueNotifier, error) {
	if queue == nil {
		return nil, fmt.Errorf("notification service initialization error: queue client is nil")
	}
	return &QueueNotifier{queue: queue}, nil
}

func (n *QueueNotifier) DeliverOffer(ctx context.Context, offer models.BookingOffer) error {
	return n.NotifyUser(ctx, OfferPayload(offer))
}

func (n *QueueNotifier) NotifyUser(ctx context.Context, payload models.NotificationPayload) error {
	task, opts, err := tasks.NewNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("NotifyUser: failed to build task: %w", err)
	}
	if _, err := n.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("NotifyUser: failed to enqueue push for %s: %w", payload.UserID, err)
	}
	return nil
}

// OfferPayload is the urgent alert a freelancer gets for an instant offer.
// It expires with the offer.
func OfferPayload(offer models.BookingOffer) models.NotificationPayload {
	deadline := offer.Deadline
	return models.NotificationPayload{
		UserID: offer.FreelancerID,
		Target: models.TargetFreelancer,
		Type:   "offer",
		Title:  "New booking request",
		Body: fmt.Sprintf("%s on %s at %s. Respond within %d seconds.",
			offer.ServiceRef, offer.Schedule.Date, offer.Schedule.Time,
			int(offer.Deadline.Sub(offer.CreatedAt).Round(time.Second)/time.Second)),
		Data: map[string]string{
			"offerId":    offer.ID,
			"serviceRef": offer.ServiceRef,
			"budget":     strconv.FormatInt(offer.Budget, 10),
			"deadline":   offer.Deadline.UTC().Format(time.RFC3339),
		},
		Urgent:    true,
		ExpiresAt: &deadline,
	}
}
