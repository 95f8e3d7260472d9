package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated  = "order.created"
	TopicOrderSaved    = "order.saved"
	TopicOrderCanceled = "order.canceled"
)

// DefaultTopics returns the canonical list of topics delivered to webhooks.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderSaved,
		TopicOrderCanceled,
	}
}
