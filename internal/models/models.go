package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access role of a user
type Role string

// User roles
const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// User represents an administrator or sales agent account
type User struct {
	ID                     int64     `db:"id" json:"id"`
	Username               string    `db:"username" json:"username"`
	Password               string    `db:"password" json:"-"`
	Name                   string    `db:"name" json:"name"`
	Role                   Role      `db:"role" json:"role"`
	IsEnabled              bool      `db:"is_enabled" json:"is_enabled"`
	AllowBigCommerceSearch bool      `db:"allow_bigcommerce_search" json:"allow_bigcommerce_search"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanSearchCatalog reports whether the user may search the remote catalog
func (u *User) CanSearchCatalog() bool {
	return u.IsAdmin() || u.AllowBigCommerceSearch
}

// Product is the local cache of a BigCommerce catalog entry
type Product struct {
	ID            int64           `db:"id" json:"id"`
	BigCommerceID int64           `db:"bigcommerce_id" json:"bigcommerce_id"`
	Name          string          `db:"name" json:"name"`
	SKU           string          `db:"sku" json:"sku"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Image         string          `db:"image" json:"image"`
	Description   string          `db:"description" json:"description"`
	StockLevel    int             `db:"stock_level" json:"stock_level"`
	IsPinned      bool            `db:"is_pinned" json:"is_pinned"`
	Variants      Variants        `db:"variants" json:"variants"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Variant returns the variant with the given id
func (p *Product) Variant(id int64) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// PriceScale is the number of decimal places stored for prices and totals
const PriceScale = 2

// RoundPrice rounds a price to PriceScale places
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

// IsWholeCents reports whether d is stored without rounding
func IsWholeCents(d decimal.Decimal) bool {
	return d.Equal(RoundPrice(d))
}

// Variant is a purchasable option combination of a product
type Variant struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Price        decimal.Decimal `json:"price"`
	StockLevel   int             `json:"stock_level"`
	OptionValues []OptionValue   `json:"option_values"`
}

// OptionValue is a single option selection, e.g. Size=Large
type OptionValue struct {
	ID                int64  `json:"id"`
	Label             string `json:"label"`
	OptionID          int64  `json:"option_id"`
	OptionDisplayName string `json:"option_display_name,omitempty"`
}

// Address is a billing address attached to an order
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Street1     string `json:"street_1"`
	Street2     string `json:"street_2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryISO2 string `json:"country_iso2,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// OrderItem is a point-in-time snapshot of a purchased line
type OrderItem struct {
	ProductID            int64           `json:"product_id"`
	BigCommerceProductID *int64          `json:"bigcommerce_product_id,omitempty"`
	VariantID            *int64          `json:"variant_id,omitempty"`
	OptionValues         []OptionValue   `json:"option_values,omitempty"`
	Quantity             int             `json:"quantity"`
	PriceAtSale          decimal.Decimal `json:"price_at_sale"`
	Name                 string          `json:"name"`
	SKU                  string          `json:"sku"`
	Image                string          `json:"image"`
}

// LineTotal returns price_at_sale multiplied by quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusDraft       OrderStatus = "draft"
	OrderStatusPendingSync OrderStatus = "pending_sync"
	OrderStatusSynced      OrderStatus = "synced"
)

// Order represents a sales order taken by an agent
type Order struct {
	ID                    int64           `db:"id" json:"id"`
	CustomerName          string          `db:"customer_name" json:"customer_name"`
	CustomerEmail         *string         `db:"customer_email" json:"customer_email"`
	BigCommerceCustomerID *int64          `db:"bigcommerce_customer_id" json:"bigcommerce_customer_id"`
	BillingAddress        *Address        `db:"billing_address" json:"billing_address"`
	Status                OrderStatus     `db:"status" json:"status"`
	SyncError             *string         `db:"sync_error" json:"sync_error"`
	OrderNote             *string         `db:"order_note" json:"order_note"`
	Items                 OrderItems      `db:"items" json:"items"`
	Total                 decimal.Decimal `db:"total" json:"total"`
	Date                  time.Time       `db:"date" json:"date"`
	CreatedByUserID       int64           `db:"created_by_user_id" json:"created_by_user_id"`
	BigCommerceOrderID    *int64          `db:"bigcommerce_order_id" json:"bigcommerce_order_id"`
	GoogleSheetsLogged    bool            `db:"google_sheets_logged" json:"google_sheets_logged"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemsTotal sums the line totals of the order items
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Setting is a key to JSON value pair
type Setting struct {
	ID        int64           `db:"id" json:"id"`
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Setting keys
const (
	SettingBigCommerceConfig   = "bigcommerce_config"
	SettingGoogleSheetsWebhook = "google_sheets_webhook"
)

// BigCommerceConfig is the value stored under SettingBigCommerceConfig
type BigCommerceConfig struct {
	StoreHash string `json:"storeHash"`
	Token     string `json:"token"`
}

// OrderActivity is one recorded lifecycle event of an order
type OrderActivity struct {
	ID         int64     `db:"id" json:"id"`
	OrderID    int64     `db:"order_id" json:"order_id"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	Status     string    `db:"status" json:"status"`
	Detail     string    `db:"detail" json:"detail"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
