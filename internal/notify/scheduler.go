package notify

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/saharat-dev/backend-merchant/internal/events"
)

// AsynqScheduler queues webhook delivery tasks for the worker. It satisfies
// events.Scheduler; when disabled or unconfigured it silently drops events so
// the emitting request never fails on broker trouble.
type AsynqScheduler struct {
	Client   *asynq.Client
	Enabled  bool
	MaxRetry int
	Timeout  time.Duration
	Log      zerolog.Logger
}

// Schedule enqueues one delivery task per event. The event id doubles as the
// task id so redelivery of the same event is deduplicated by the broker.
func (s *AsynqScheduler) Schedule(ctx context.Context, ev events.Event) error {
	if s == nil || !s.Enabled || s.Client == nil {
		return nil
	}
	task, err := NewWebhookTask(ev)
	if err != nil {
		return err
	}
	maxRetry := s.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 5
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts := []asynq.Option{
		asynq.Queue(QueueWebhooks),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
	}
	if ev.ID != "" {
		opts = append(opts, asynq.TaskID(ev.ID))
	}
	info, err := s.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return err
	}
	s.Log.Debug().Str("task_id", info.ID).Str("topic", ev.Topic).
		Msg("webhook delivery enqueued")
	return nil
}
