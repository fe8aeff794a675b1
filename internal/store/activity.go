package store

import (
	"context"

	"vansales-service/internal/models"
)

// RecordOrderActivity stores an order lifecycle event once per event id
func (s *Store) RecordOrderActivity(ctx context.Context, a *models.OrderActivity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO order_activity (order_id, event_id, event_type, status, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		a.OrderID, a.EventID, a.EventType, a.Status, a.Detail, a.OccurredAt)
	return translateError(err)
}

// ListOrderActivity retrieves the recorded events of an order in order of occurrence
func (s *Store) ListOrderActivity(ctx context.Context, orderID int64) ([]models.OrderActivity, error) {
	activity := []models.OrderActivity{}
	err := s.db.SelectContext(ctx, &activity, `
		SELECT id, order_id, event_id, event_type, status, detail, occurred_at
		FROM order_activity WHERE order_id = $1 ORDER BY occurred_at, id`, orderID)
	return activity, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
