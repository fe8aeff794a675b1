package service

import (
	"context"
	"encoding/json"
	"time"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
)

// UserRepository persists user accounts
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, id int64, enabled bool) error
	UpdateUserSearchPermission(ctx context.Context, id int64, allow bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// ProductRepository persists the local catalog
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListPinnedProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductByBigCommerceID(ctx context.Context, bcID int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProductPin(ctx context.Context, id int64, pinned bool) error
	UpdateProductCatalog(ctx context.Context, p *models.Product) error
}

// OrderRepository persists orders and their status transitions
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	ListDraftsByUser(ctx context.Context, userID int64) ([]models.Order, error)
	PrepareOrderForSync(ctx context.Context, id int64, customerID *int64, address *models.Address) error
	MarkOrderSynced(ctx context.Context, id, bigCommerceOrderID int64) error
	MarkOrderSyncFailed(ctx context.Context, id int64, syncErr string) error
	MarkOrderMirrored(ctx context.Context, id int64) error
}

// SettingsRepository persists key to JSON settings
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error)
}

// ActivityRepository records order lifecycle events
type ActivityRepository interface {
	RecordOrderActivity(ctx context.Context, a *models.OrderActivity) error
	ListOrderActivity(ctx context.Context, orderID int64) ([]models.OrderActivity, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Gateway is the BigCommerce API surface the services call
type Gateway interface {
	SearchProducts(ctx context.Context, keyword string) ([]bigcommerce.CatalogProduct, error)
	GetProduct(ctx context.Context, productID int64) (*bigcommerce.CatalogProduct, error)
	SearchCustomers(ctx context.Context, term string) ([]bigcommerce.Customer, error)
	GetCustomerAddresses(ctx context.Context, customerID int64) ([]bigcommerce.CustomerAddress, error)
	CreateOrder(ctx context.Context, order *bigcommerce.OrderRequest) (*bigcommerce.OrderResponse, error)
}

// GatewayFactory builds a gateway for resolved credentials
type GatewayFactory func(creds bigcommerce.Credentials) (Gateway, error)

// Mirror posts a submitted order to the spreadsheet webhook
type Mirror interface {
	Post(ctx context.Context, webhookURL string, order *models.Order) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
	PublishCatalogResynced(ctx context.Context, event *models.CatalogResyncedEvent) error
}

// IdempotencyStore remembers which order a submission key produced
type IdempotencyStore interface {
	ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, int64, error)
	CompleteIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// Locker guards work that must not overlap across instances
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, lockKey, token string) error
}
