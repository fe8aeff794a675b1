package models

import "time"

// Event types
const (
	EventTypeOrderDrafted    = "ORDER_DRAFTED"
	EventTypeOrderSubmitted  = "ORDER_SUBMITTED"
	EventTypeOrderSynced     = "ORDER_SYNCED"
	EventTypeOrderSyncFailed = "ORDER_SYNC_FAILED"
	EventTypeCatalogResynced = "CATALOG_RESYNCED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published on every order lifecycle transition
type OrderEvent struct {
	BaseEvent
	OrderID            int64  `json:"order_id"`
	UserID             int64  `json:"user_id"`
	Status             string `json:"status"`
	Total              string `json:"total"`
	BigCommerceOrderID *int64 `json:"bigcommerce_order_id,omitempty"`
	SyncError          string `json:"sync_error,omitempty"`
}

// CatalogResyncedEvent is published after a catalog resync completes
type CatalogResyncedEvent struct {
	BaseEvent
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}
