package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/saharat-dev/backend-merchant/internal/events"
)

// LogNotifier writes every emitted event to the structured log. It is the
// always-on fan-out target alongside webhook scheduling.
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify implements events.Notifier.
func (n LogNotifier) Notify(_ context.Context, ev events.Event) error {
	n.Log.Info().
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		Str("event_id", ev.ID).
		RawJSON("payload", ev.Payload).
		Msg("domain event")
	return nil
}
