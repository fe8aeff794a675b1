package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"vansales-service/internal/models"
	"vansales-service/internal/util"
)

// EventWriter writes a keyed event to the bus
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventWriter
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventWriter) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes an order lifecycle event keyed by order
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCatalogResynced publishes the outcome of a catalog resync
func (ep *EventPublisher) PublishCatalogResynced(ctx context.Context, event *models.CatalogResyncedEvent) error {
	return ep.producer.PublishEvent(ctx, "catalog", event)
}

// NoopPublisher drops every event; used when no brokers are configured
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	return nil
}

func (NoopPublisher) PublishCatalogResynced(ctx context.Context, event *models.CatalogResyncedEvent) error {
	return nil
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderEvent      func(context.Context, *models.OrderEvent) error
	onCatalogResynced func(context.Context, *models.CatalogResyncedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Component("event-handler")}
}

// OnOrderEvent registers a handler for every order lifecycle event
func (eh *EventHandler) OnOrderEvent(handler func(context.Context, *models.OrderEvent) error) {
	eh.onOrderEvent = handler
}

// OnCatalogResynced registers a handler for CatalogResynced events
func (eh *EventHandler) OnCatalogResynced(handler func(context.Context, *models.CatalogResyncedEvent) error) {
	eh.onCatalogResynced = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderDrafted,
		models.EventTypeOrderSubmitted,
		models.EventTypeOrderSynced,
		models.EventTypeOrderSyncFailed:
		if eh.onOrderEvent != nil {
			var event models.OrderEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
			}
			return eh.onOrderEvent(ctx, &event)
		}

	case models.EventTypeCatalogResynced:
		if eh.onCatalogResynced != nil {
			var event models.CatalogResyncedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogResynced event: %w", err)
			}
			return eh.onCatalogResynced(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
