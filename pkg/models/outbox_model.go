package models

import "time"

// OutboxEvent maps to table `outbox_events`
type OutboxEvent struct {
	ID          int64
	EventType   string
	AggregateID string // transaction id for payment events
	Payload     []byte
	Published   bool
	CreatedAt   time.Time
	PublishedAt *time.Time
}
