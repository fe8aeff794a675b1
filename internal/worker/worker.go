package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vansales-service/internal/broker"
	"vansales-service/internal/models"
	"vansales-service/internal/service"
	"vansales-service/internal/util"
)

// ActivityWorker consumes order events and records them as order activity
type ActivityWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	activity     service.ActivityRepository
	logger       *zap.Logger
}

// NewActivityWorker creates a new activity worker
func NewActivityWorker(consumer *broker.Consumer, activity service.ActivityRepository) *ActivityWorker {
	w := &ActivityWorker{
		consumer: consumer,
		activity: activity,
		logger:   util.Component("activity-worker"),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnOrderEvent(w.HandleOrderEvent)
	w.eventHandler.OnCatalogResynced(w.HandleCatalogResynced)

	return w
}

// Start starts the worker
func (w *ActivityWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting activity worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ActivityWorker) Stop() error {
	w.logger.Info("Stopping activity worker")
	return w.consumer.Close()
}

// HandleOrderEvent records an order event once, skipping redeliveries
func (w *ActivityWorker) HandleOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	processed, err := w.activity.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check processed event: %w", err)
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	entry := &models.OrderActivity{
		OrderID:    event.OrderID,
		EventID:    event.EventID,
		EventType:  event.EventType,
		Status:     event.Status,
		Detail:     describe(event),
		OccurredAt: event.Timestamp,
	}
	if err := w.activity.RecordOrderActivity(ctx, entry); err != nil {
		return fmt.Errorf("failed to record order activity: %w", err)
	}

	if err := w.activity.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	w.logger.Info("Order activity recorded",
		zap.Int64("order_id", event.OrderID),
		zap.String("event_type", event.EventType))
	return nil
}

// HandleCatalogResynced logs the outcome of a resync
func (w *ActivityWorker) HandleCatalogResynced(ctx context.Context, event *models.CatalogResyncedEvent) error {
	w.logger.Info("Catalog resynced",
		zap.String("event_id", event.EventID),
		zap.Int("updated", event.Updated),
		zap.Int("errors", event.Errors))
	return nil
}

func describe(event *models.OrderEvent) string {
	switch event.EventType {
	case models.EventTypeOrderDrafted:
		return fmt.Sprintf("Draft saved, total %s", event.Total)
	case models.EventTypeOrderSubmitted:
		return fmt.Sprintf("Submitted for sync, total %s", event.Total)
	case models.EventTypeOrderSynced:
		if event.BigCommerceOrderID != nil {
			return fmt.Sprintf("Created BigCommerce order %d", *event.BigCommerceOrderID)
		}
		return "Created BigCommerce order"
	case models.EventTypeOrderSyncFailed:
		return "Sync failed: " + event.SyncError
	default:
		return event.EventType
	}
}
