// Package sheets posts submitted orders to a spreadsheet webhook.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"vansales-service/internal/models"
	"vansales-service/internal/util"
)

// ErrNotConfigured is returned when no webhook URL is set
var ErrNotConfigured = errors.New("webhook not configured")

// Row is the flattened order summary sent to the webhook
type Row struct {
	OrderID            int64     `json:"order_id"`
	Date               time.Time `json:"date"`
	CustomerName       string    `json:"customer_name"`
	CustomerEmail      string    `json:"customer_email"`
	Total              string    `json:"total"`
	Status             string    `json:"status"`
	Synced             bool      `json:"synced"`
	BigCommerceOrderID *int64    `json:"bigcommerce_order_id"`
	SyncError          string    `json:"sync_error,omitempty"`
	ItemCount          int       `json:"item_count"`
	Items              string    `json:"items"`
	OrderNote          string    `json:"order_note,omitempty"`
}

// NewRow flattens an order into a spreadsheet row
func NewRow(order *models.Order) Row {
	row := Row{
		OrderID:            order.ID,
		Date:               order.Date,
		CustomerName:       order.CustomerName,
		Total:              order.Total.StringFixed(2),
		Status:             string(order.Status),
		Synced:             order.Status == models.OrderStatusSynced,
		BigCommerceOrderID: order.BigCommerceOrderID,
	}
	if order.CustomerEmail != nil {
		row.CustomerEmail = *order.CustomerEmail
	}
	if order.SyncError != nil {
		row.SyncError = *order.SyncError
	}
	if order.OrderNote != nil {
		row.OrderNote = *order.OrderNote
	}

	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		row.ItemCount += item.Quantity
		lines = append(lines, fmt.Sprintf("%dx %s (%s)", item.Quantity, item.Name, item.PriceAtSale.StringFixed(2)))
	}
	row.Items = strings.Join(lines, "; ")

	return row
}

// Mirror posts order rows to a webhook URL
type Mirror struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMirror creates a webhook mirror using the given HTTP client
func NewMirror(httpClient *http.Client) *Mirror {
	if httpClient == nil {
		httpClient = util.NewHTTPClient(10 * time.Second)
	}
	return &Mirror{
		httpClient: httpClient,
		logger:     util.Component("sheets"),
	}
}

// Post sends the order to webhookURL. Any non-2xx response is an error.
func (m *Mirror) Post(ctx context.Context, webhookURL string, order *models.Order) error {
	ctx, span := util.StartSpan(ctx, "sheets.Post")
	defer span.End()

	if strings.TrimSpace(webhookURL) == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(NewRow(order))
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		util.SheetsMirrorTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		util.SheetsMirrorTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("webhook returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	util.SheetsMirrorTotal.WithLabelValues("success").Inc()
	m.logger.Debug("Order mirrored", zap.Int64("order_id", order.ID))
	return nil
}
