package repositories

import (
	"context"

	"github.com/nimeshabuddhika/garmentix-payments/pkg/database"
	"github.com/nimeshabuddhika/garmentix-payments/pkg/models"
)

type OutboxRepository interface {
	Save(ctx context.Context, q database.Querier, event models.OutboxEvent) error
	// FindUnpublished locks up to limit pending events, oldest first. Rows locked by another dispatcher are skipped.
	FindUnpublished(ctx context.Context, q database.Querier, limit int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, q database.Querier, id int64) error
}

type OutboxRepositoryImpl struct {
}

func NewOutboxRepository() OutboxRepository {
	return &OutboxRepositoryImpl{}
}

func (o OutboxRepositoryImpl) Save(ctx context.Context, q database.Querier, event models.OutboxEvent) error {
	_, err := q.Exec(ctx, `INSERT INTO outbox_events (event_type, aggregate_id, payload) VALUES ($1, $2, $3)`,
		event.EventType, event.AggregateID, event.Payload)
	return err
}

func (o OutboxRepositoryImpl) FindUnpublished(ctx context.Context, q database.Querier, limit int) ([]models.OutboxEvent, error) {
	rows, err := q.Query(ctx, `
		SELECT id, event_type, aggregate_id, payload, published, created_at, published_at
		FROM outbox_events
		WHERE published = FALSE
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		var e models.OutboxEvent
		if err = rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Payload, &e.Published, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (o OutboxRepositoryImpl) MarkPublished(ctx context.Context, q database.Querier, id int64) error {
	_, err := q.Exec(ctx, `UPDATE outbox_events SET published = TRUE, published_at = NOW() WHERE id = $1`, id)
	return err
}
