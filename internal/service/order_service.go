package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/cart"
	"vansales-service/internal/models"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

// IdempotencyTTL is how long a submission key is remembered
const IdempotencyTTL = 24 * time.Hour

const mirrorNotConfigured = "webhook not configured"

// remoteCreatedPrefix marks sync errors for orders BigCommerce already accepted
const remoteCreatedPrefix = "created BigCommerce order"

// OrderService handles order submission and lookup
type OrderService struct {
	orders      OrderRepository
	products    ProductRepository
	activity    ActivityRepository
	settings    *SettingsService
	mirror      Mirror
	publisher   EventPublisher
	idempotency IdempotencyStore
	logger      *zap.Logger
}

// NewOrderService creates a new order service. idempotency may be nil.
func NewOrderService(
	orders OrderRepository,
	products ProductRepository,
	activity ActivityRepository,
	settings *SettingsService,
	mirror Mirror,
	publisher EventPublisher,
	idempotency IdempotencyStore,
) *OrderService {
	return &OrderService{
		orders:      orders,
		products:    products,
		activity:    activity,
		settings:    settings,
		mirror:      mirror,
		publisher:   publisher,
		idempotency: idempotency,
		logger:      util.Component("orders"),
	}
}

// OrderRequest is a submitted or drafted order
type OrderRequest struct {
	CustomerName          string             `json:"customer_name"`
	CustomerEmail         *string            `json:"customer_email"`
	BigCommerceCustomerID *int64             `json:"bigcommerce_customer_id"`
	BillingAddress        *models.Address    `json:"billing_address"`
	OrderNote             *string            `json:"order_note"`
	Items                 []models.OrderItem `json:"items"`
	Total                 *decimal.Decimal   `json:"total"`

	UserID         int64  `json:"-"`
	IdempotencyKey string `json:"-"`
}

// ResubmitRequest supplies the customer details chosen when a draft is resubmitted
type ResubmitRequest struct {
	BigCommerceCustomerID *int64          `json:"bigcommerce_customer_id"`
	BillingAddress        *models.Address `json:"billing_address"`
}

// GatewayOutcome reports the BigCommerce step of a submission
type GatewayOutcome struct {
	Success bool   `json:"success"`
	OrderID *int64 `json:"order_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MirrorOutcome reports the spreadsheet step of a submission
type MirrorOutcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SubmitResult is the outcome of a submission. Gateway and mirror failures
// are reported here, never as errors.
type SubmitResult struct {
	Order        *models.Order  `json:"order"`
	BigCommerce  GatewayOutcome `json:"bigcommerce"`
	GoogleSheets MirrorOutcome  `json:"google_sheets"`
}

// Submit persists an order and pushes it to BigCommerce and the spreadsheet webhook
func (s *OrderService) Submit(ctx context.Context, req *OrderRequest) (*SubmitResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Submit")
	defer span.End()

	if err := validateOrderRequest(req, true); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		reserved, existingID, err := s.idempotency.ReserveIdempotencyKey(ctx, key, IdempotencyTTL)
		switch {
		case err != nil:
			s.logger.Warn("Idempotency check unavailable, continuing", zap.Error(err))
			key = ""
		case !reserved:
			util.OrdersRejectedTotal.WithLabelValues("duplicate").Inc()
			s.logger.Info("Duplicate order submission detected",
				zap.String("idempotency_key", key),
				zap.Int64("order_id", existingID))
			return nil, &ConflictError{
				Resource:   "order",
				Message:    "duplicate submission",
				ExistingID: existingID,
			}
		}
	} else {
		key = ""
	}

	order := newOrder(req, models.OrderStatusPendingSync)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if key != "" {
			if relErr := s.idempotency.ReleaseIdempotencyKey(ctx, key); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
			}
		}
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if key != "" {
		if err := s.idempotency.CompleteIdempotencyKey(ctx, key, order.ID, IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to record idempotency key", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	util.OrdersSubmittedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.CreatedByUserID),
		zap.String("total", order.Total.String()))
	s.publish(ctx, models.EventTypeOrderSubmitted, order)

	return s.syncAndMirror(ctx, order), nil
}

// SaveDraft stores an order locally without contacting BigCommerce
func (s *OrderService) SaveDraft(ctx context.Context, req *OrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SaveDraft")
	defer span.End()

	if err := validateOrderRequest(req, false); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	order := newOrder(req, models.OrderStatusDraft)
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	util.OrdersDraftedTotal.Inc()
	s.logger.Info("Draft saved", zap.Int64("order_id", order.ID), zap.Int64("user_id", order.CreatedByUserID))
	s.publish(ctx, models.EventTypeOrderDrafted, order)

	return order, nil
}

// ResubmitDraft submits a draft, or retries a pending order whose sync failed
func (s *OrderService) ResubmitDraft(ctx context.Context, actor *models.User, orderID int64, req *ResubmitRequest) (*SubmitResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ResubmitDraft")
	defer span.End()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.CreatedByUserID != actor.ID {
		return nil, ErrForbidden
	}

	switch {
	case order.Status == models.OrderStatusSynced:
		return nil, NewConflictError("order", "order is already synced")
	case order.Status == models.OrderStatusPendingSync && order.SyncError == nil:
		return nil, NewConflictError("order", "order is already awaiting sync")
	case order.SyncError != nil && strings.HasPrefix(*order.SyncError, remoteCreatedPrefix):
		return nil, NewConflictError("order", "order already exists in BigCommerce")
	}

	address := order.BillingAddress
	if req.BillingAddress != nil {
		address = req.BillingAddress
	}
	if err := validateAddress(address); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if err := s.orders.PrepareOrderForSync(ctx, orderID, req.BigCommerceCustomerID, address); err != nil {
		if errors.Is(err, store.ErrStatusTransition) {
			return nil, NewConflictError("order", "order status changed, reload and try again")
		}
		return nil, fmt.Errorf("failed to prepare order for sync: %w", err)
	}

	order, err = s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	util.OrdersSubmittedTotal.Inc()
	s.logger.Info("Order resubmitted", zap.Int64("order_id", order.ID), zap.Int64("user_id", actor.ID))
	s.publish(ctx, models.EventTypeOrderSubmitted, order)

	return s.syncAndMirror(ctx, order), nil
}

// syncAndMirror runs the BigCommerce and spreadsheet steps for a pending order
func (s *OrderService) syncAndMirror(ctx context.Context, order *models.Order) *SubmitResult {
	result := &SubmitResult{BigCommerce: s.syncOrder(ctx, order)}

	if reloaded, err := s.orders.GetOrderByID(ctx, order.ID); err == nil {
		order = reloaded
	} else {
		s.logger.Error("Failed to reload order", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	result.GoogleSheets = s.mirrorOrder(ctx, order)
	result.Order = order
	return result
}

func (s *OrderService) syncOrder(ctx context.Context, order *models.Order) GatewayOutcome {
	ctx, span := util.StartSpan(ctx, "OrderService.syncOrder")
	defer span.End()

	gw, err := s.settings.Gateway(ctx)
	if err != nil {
		return s.syncFailed(ctx, order, "not_configured", err)
	}

	payload, err := bigcommerce.BuildOrderRequest(s.withRemoteProductIDs(ctx, order))
	if err != nil {
		return s.syncFailed(ctx, order, "payload", err)
	}

	resp, err := gw.CreateOrder(ctx, payload)
	if err != nil {
		return s.syncFailed(ctx, order, "gateway", err)
	}

	remoteID := resp.ID
	if err := s.orders.MarkOrderSynced(ctx, order.ID, remoteID); err != nil {
		s.logger.Error("Order created in BigCommerce but local update failed",
			zap.Int64("order_id", order.ID),
			zap.Int64("bigcommerce_order_id", remoteID),
			zap.Error(err))

		// keep the remote id visible on the order; it must not be sent again
		msg := fmt.Sprintf("%s %d but local update failed: %v", remoteCreatedPrefix, remoteID, err)
		if markErr := s.orders.MarkOrderSyncFailed(ctx, order.ID, msg); markErr != nil {
			s.logger.Error("Failed to record sync error", zap.Int64("order_id", order.ID), zap.Error(markErr))
		}
		order.SyncError = &msg
		util.OrdersSyncFailedTotal.WithLabelValues("local_update").Inc()
		s.publish(ctx, models.EventTypeOrderSyncFailed, order)
		return GatewayOutcome{Success: false, OrderID: &remoteID, Error: msg}
	}

	order.Status = models.OrderStatusSynced
	order.BigCommerceOrderID = &remoteID
	order.SyncError = nil

	util.OrdersSyncedTotal.Inc()
	s.logger.Info("Order synced",
		zap.Int64("order_id", order.ID),
		zap.Int64("bigcommerce_order_id", remoteID))
	s.publish(ctx, models.EventTypeOrderSynced, order)

	return GatewayOutcome{Success: true, OrderID: &remoteID}
}

func (s *OrderService) syncFailed(ctx context.Context, order *models.Order, reason string, cause error) GatewayOutcome {
	msg := cause.Error()
	if err := s.orders.MarkOrderSyncFailed(ctx, order.ID, msg); err != nil {
		s.logger.Error("Failed to record sync error", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	order.SyncError = &msg

	util.OrdersSyncFailedTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("Order sync failed",
		zap.Int64("order_id", order.ID),
		zap.String("reason", reason),
		zap.Error(cause))
	s.publish(ctx, models.EventTypeOrderSyncFailed, order)

	return GatewayOutcome{Success: false, Error: msg}
}

// withRemoteProductIDs fills missing BigCommerce product ids from the local catalog
func (s *OrderService) withRemoteProductIDs(ctx context.Context, order *models.Order) *models.Order {
	resolved := *order
	resolved.Items = make(models.OrderItems, len(order.Items))
	copy(resolved.Items, order.Items)

	for i := range resolved.Items {
		item := &resolved.Items[i]
		if item.BigCommerceProductID != nil {
			continue
		}
		product, err := s.products.GetProductByID(ctx, item.ProductID)
		if err != nil {
			s.logger.Debug("No local product for order item",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		bcID := product.BigCommerceID
		item.BigCommerceProductID = &bcID
	}
	return &resolved
}

func (s *OrderService) mirrorOrder(ctx context.Context, order *models.Order) MirrorOutcome {
	webhook := s.settings.WebhookURL(ctx)
	if webhook == "" {
		util.SheetsMirrorTotal.WithLabelValues("skipped").Inc()
		return MirrorOutcome{Success: false, Error: mirrorNotConfigured}
	}

	if err := s.mirror.Post(ctx, webhook, order); err != nil {
		s.logger.Warn("Spreadsheet mirror failed", zap.Int64("order_id", order.ID), zap.Error(err))
		return MirrorOutcome{Success: false, Error: err.Error()}
	}

	if err := s.orders.MarkOrderMirrored(ctx, order.ID); err != nil {
		s.logger.Error("Failed to flag order as mirrored", zap.Int64("order_id", order.ID), zap.Error(err))
	} else {
		order.GoogleSheetsLogged = true
	}
	return MirrorOutcome{Success: true}
}

// GetOrder returns an order visible to actor
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, orderID int64) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.CreatedByUserID != actor.ID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListByUser returns a user's orders, newest first
func (s *OrderService) ListByUser(ctx context.Context, actor *models.User, userID int64) ([]models.Order, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, ErrForbidden
	}
	orders, err := s.orders.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListPending returns orders still waiting for a successful sync
func (s *OrderService) ListPending(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListOrdersByStatus(ctx, models.OrderStatusPendingSync)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	return orders, nil
}

// ListDrafts returns the actor's drafts, or every draft for admins
func (s *OrderService) ListDrafts(ctx context.Context, actor *models.User) ([]models.Order, error) {
	var (
		orders []models.Order
		err    error
	)
	if actor.IsAdmin() {
		orders, err = s.orders.ListOrdersByStatus(ctx, models.OrderStatusDraft)
	} else {
		orders, err = s.orders.ListDraftsByUser(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return orders, nil
}

// Activity returns the recorded lifecycle events of an order
func (s *OrderService) Activity(ctx context.Context, orderID int64) ([]models.OrderActivity, error) {
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}
	activity, err := s.activity.ListOrderActivity(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order activity: %w", err)
	}
	return activity, nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewNotFoundError("order", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}

	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		OrderID:            order.ID,
		UserID:             order.CreatedByUserID,
		Status:             string(order.Status),
		Total:              order.Total.String(),
		BigCommerceOrderID: order.BigCommerceOrderID,
	}
	if order.SyncError != nil {
		event.SyncError = *order.SyncError
	}

	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func newOrder(req *OrderRequest, status models.OrderStatus) *models.Order {
	return &models.Order{
		CustomerName:          strings.TrimSpace(req.CustomerName),
		CustomerEmail:         req.CustomerEmail,
		BigCommerceCustomerID: req.BigCommerceCustomerID,
		BillingAddress:        req.BillingAddress,
		Status:                status,
		OrderNote:             req.OrderNote,
		Items:                 models.OrderItems(req.Items),
		Total:                 *req.Total,
		CreatedByUserID:       req.UserID,
	}
}

// validateOrderRequest checks an order before anything is persisted
func validateOrderRequest(req *OrderRequest, requireAddress bool) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return NewValidationError("customer_name", "is required")
	}
	if requireAddress {
		if err := validateAddress(req.BillingAddress); err != nil {
			return err
		}
	}
	if len(req.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.ProductID <= 0 {
			return NewValidationError(field+".product_id", "is required")
		}
		if item.Quantity <= 0 {
			return NewValidationError(field+".quantity", "must be greater than zero")
		}
		if item.PriceAtSale.IsNegative() {
			return NewValidationError(field+".price_at_sale", "must not be negative")
		}
		if !models.IsWholeCents(item.PriceAtSale) {
			return NewValidationError(field+".price_at_sale", "must not have more than two decimal places")
		}
	}
	if req.Total == nil {
		return NewValidationError("total", "is required")
	}
	if !models.IsWholeCents(*req.Total) {
		return NewValidationError("total", "must not have more than two decimal places")
	}

	expected := cart.FromItems(req.Items).Total()
	if !req.Total.Equal(expected) {
		return NewValidationError("total", fmt.Sprintf("does not match item sum %s", expected.String()))
	}
	return nil
}

func validateAddress(addr *models.Address) error {
	if addr == nil {
		return NewValidationError("billing_address", "is required")
	}
	if strings.TrimSpace(addr.Street1) == "" {
		return NewValidationError("billing_address.street_1", "is required")
	}
	return nil
}
