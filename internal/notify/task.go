package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/saharat-dev/backend-merchant/internal/events"
)

// TaskWebhookDeliver is the asynq task type for webhook deliveries.
const TaskWebhookDeliver = "webhook:deliver"

// QueueWebhooks is the asynq queue webhook tasks are routed to.
const QueueWebhooks = "webhooks"

// NewWebhookTask packs a domain event into a delivery task.
func NewWebhookTask(ev events.Event) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return asynq.NewTask(TaskWebhookDeliver, payload), nil
}
