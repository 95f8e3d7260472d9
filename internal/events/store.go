package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists domain events in Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

// Insert appends one event and returns it with its assigned id and timestamp.
func (s *PGStore) Insert(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	ev := Event{Topic: topic, AggregateID: aggregateID, Payload: payload}
	var (
		id         pgtype.UUID
		occurredAt pgtype.Timestamptz
	)
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO domain_events (id, topic, aggregate_id, payload)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, occurred_at`,
		uuid.NewString(), topic, aggregateID, payload).Scan(&id, &occurredAt)
	if err != nil {
		return Event{}, err
	}
	if id.Valid {
		ev.ID = uuid.UUID(id.Bytes).String()
	}
	if occurredAt.Valid {
		ev.OccurredAt = occurredAt.Time
	}
	return ev, nil
}
