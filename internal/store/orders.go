package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vansales-service/internal/models"
)

const orderColumns = `id, customer_name, customer_email, bigcommerce_customer_id, billing_address, status,
	sync_error, order_note, items, total, date, created_by_user_id, bigcommerce_order_id,
	google_sheets_logged, updated_at`

// CreateOrder inserts a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_name, customer_email, bigcommerce_customer_id, billing_address,
		                    status, order_note, items, total, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, date, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		order.CustomerName, order.CustomerEmail, order.BigCommerceCustomerID, order.BillingAddress,
		order.Status, order.OrderNote, order.Items, order.Total, order.CreatedByUserID,
	).Scan(&order.ID, &order.Date, &order.UpdatedAt)
	return translateError(err)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUser retrieves orders for a user, newest first
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE created_by_user_id = $1 ORDER BY date DESC", userID)
	return orders, err
}

// ListOrdersByStatus retrieves orders in a status, newest first
func (s *Store) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 ORDER BY date DESC", status)
	return orders, err
}

// ListDraftsByUser retrieves the draft orders of a user
func (s *Store) ListDraftsByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 AND created_by_user_id = $2 ORDER BY date DESC",
		models.OrderStatusDraft, userID)
	return orders, err
}

// PrepareOrderForSync moves a draft, or a pending order whose last sync failed,
// back to pending_sync with the resolved customer and billing address.
func (s *Store) PrepareOrderForSync(ctx context.Context, id int64, customerID *int64, address *models.Address) error {
	query := `
		UPDATE orders
		SET status = $2, sync_error = NULL,
		    bigcommerce_customer_id = COALESCE($3, bigcommerce_customer_id),
		    billing_address = $4, updated_at = NOW()
		WHERE id = $1
		  AND (status = $5 OR (status = $2 AND sync_error IS NOT NULL))`

	res, err := s.db.ExecContext(ctx, query,
		id, models.OrderStatusPendingSync, customerID, address, models.OrderStatusDraft)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("order %d: %w", id, ErrStatusTransition))
}

// MarkOrderSynced records the BigCommerce order id of a pending order
func (s *Store) MarkOrderSynced(ctx context.Context, id, bigCommerceOrderID int64) error {
	query := `
		UPDATE orders
		SET status = $2, bigcommerce_order_id = $3, sync_error = NULL, updated_at = NOW()
		WHERE id = $1 AND status = $4`

	res, err := s.db.ExecContext(ctx, query,
		id, models.OrderStatusSynced, bigCommerceOrderID, models.OrderStatusPendingSync)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("order %d: %w", id, ErrStatusTransition))
}

// MarkOrderSyncFailed stores the sync error of a pending order
func (s *Store) MarkOrderSyncFailed(ctx context.Context, id int64, syncErr string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET sync_error = $2, updated_at = NOW() WHERE id = $1 AND status = $3",
		id, syncErr, models.OrderStatusPendingSync)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("order %d: %w", id, ErrStatusTransition))
}

// MarkOrderMirrored flags an order as logged to the spreadsheet webhook
func (s *Store) MarkOrderMirrored(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET google_sheets_logged = TRUE, updated_at = NOW() WHERE id = $1", id)
	return err
}
