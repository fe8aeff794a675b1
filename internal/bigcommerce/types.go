package bigcommerce

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vansales-service/internal/models"
)

// OrderStatusAwaitingFulfillment is the V2 status id assigned to created orders
const OrderStatusAwaitingFulfillment = 11

// CatalogProduct is a product as returned by the V3 catalog API
type CatalogProduct struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	SKU             string           `json:"sku"`
	Price           decimal.Decimal  `json:"price"`
	CalculatedPrice decimal.Decimal  `json:"calculated_price"`
	Description     string           `json:"description"`
	InventoryLevel  int              `json:"inventory_level"`
	PrimaryImage    *Image           `json:"primary_image"`
	Variants        []CatalogVariant `json:"variants"`
}

// Image is a product image reference
type Image struct {
	URLStandard  string `json:"url_standard"`
	URLThumbnail string `json:"url_thumbnail"`
}

// CatalogVariant is a product variant as returned by the V3 catalog API
type CatalogVariant struct {
	ID              int64                `json:"id"`
	ProductID       int64                `json:"product_id"`
	SKU             string               `json:"sku"`
	Price           *decimal.Decimal     `json:"price"`
	CalculatedPrice decimal.Decimal      `json:"calculated_price"`
	InventoryLevel  int                  `json:"inventory_level"`
	OptionValues    []CatalogOptionValue `json:"option_values"`
}

// CatalogOptionValue is one option selection of a variant
type CatalogOptionValue struct {
	ID                int64  `json:"id"`
	Label             string `json:"label"`
	OptionID          int64  `json:"option_id"`
	OptionDisplayName string `json:"option_display_name"`
}

// Customer is a customer record from the V3 customers API
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
}

// CustomerAddress is a stored customer address from the V3 customers API
type CustomerAddress struct {
	ID              int64  `json:"id"`
	CustomerID      int64  `json:"customer_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Company         string `json:"company"`
	Address1        string `json:"address1"`
	Address2        string `json:"address2"`
	City            string `json:"city"`
	StateOrProvince string `json:"state_or_province"`
	PostalCode      string `json:"postal_code"`
	Country         string `json:"country"`
	CountryCode     string `json:"country_code"`
	Phone           string `json:"phone"`
	AddressType     string `json:"address_type"`
}

// ToAddress converts a stored customer address into an order billing address
func (a CustomerAddress) ToAddress() models.Address {
	return models.Address{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Company:     a.Company,
		Street1:     a.Address1,
		Street2:     a.Address2,
		City:        a.City,
		State:       a.StateOrProvince,
		Zip:         a.PostalCode,
		Country:     a.Country,
		CountryISO2: a.CountryCode,
		Phone:       a.Phone,
	}
}

// OrderRequest is the V2 create order payload
type OrderRequest struct {
	CustomerID     int64          `json:"customer_id"`
	StatusID       int            `json:"status_id"`
	BillingAddress OrderAddress   `json:"billing_address"`
	Products       []OrderProduct `json:"products"`
	StaffNotes     string         `json:"staff_notes,omitempty"`
	ExternalSource string         `json:"external_source,omitempty"`
}

// OrderAddress is the billing address of a V2 order
type OrderAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Street1     string `json:"street_1"`
	Street2     string `json:"street_2"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
	CountryISO2 string `json:"country_iso2"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// OrderProduct is a line of a V2 order
type OrderProduct struct {
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	PriceIncTax    decimal.Decimal `json:"price_inc_tax"`
	PriceExTax     decimal.Decimal `json:"price_ex_tax"`
	ProductOptions []ProductOption `json:"product_options,omitempty"`
}

// ProductOption selects an option value on an order line
type ProductOption struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// OrderResponse is the subset of the V2 order response the app reads
type OrderResponse struct {
	ID       int64  `json:"id"`
	StatusID int    `json:"status_id"`
	Status   string `json:"status"`
}

var htmlTag = regexp.MustCompile(`<[^>]*>?`)

// StripHTML removes markup and decodes entities from a product description
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTag.ReplaceAllString(s, "")))
}

// ToProduct converts a catalog product into the local product shape.
// The result carries no local id and is not pinned.
func (p CatalogProduct) ToProduct() models.Product {
	product := models.Product{
		BigCommerceID: p.ID,
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         models.RoundPrice(p.Price),
		Description:   StripHTML(p.Description),
		StockLevel:    p.InventoryLevel,
	}
	if p.PrimaryImage != nil {
		product.Image = p.PrimaryImage.URLStandard
	}

	for _, v := range p.Variants {
		variant := models.Variant{
			ID:         v.ID,
			SKU:        v.SKU,
			Price:      v.CalculatedPrice,
			StockLevel: v.InventoryLevel,
		}
		if v.Price != nil {
			variant.Price = *v.Price
		}
		variant.Price = models.RoundPrice(variant.Price)
		for _, ov := range v.OptionValues {
			variant.OptionValues = append(variant.OptionValues, models.OptionValue{
				ID:                ov.ID,
				Label:             ov.Label,
				OptionID:          ov.OptionID,
				OptionDisplayName: ov.OptionDisplayName,
			})
		}
		product.Variants = append(product.Variants, variant)
	}

	return product
}

// SplitName splits a customer name into first token and remainder
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	first, last = "Customer", "Account"
	if len(parts) > 0 {
		first = parts[0]
	}
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

// BuildOrderRequest maps a local order onto the V2 create order payload.
// Every item must carry its BigCommerce product id.
func BuildOrderRequest(order *models.Order) (*OrderRequest, error) {
	if order.BillingAddress == nil {
		return nil, fmt.Errorf("order %d has no billing address", order.ID)
	}

	first, last := SplitName(order.CustomerName)
	addr := order.BillingAddress

	req := &OrderRequest{
		StatusID:       OrderStatusAwaitingFulfillment,
		ExternalSource: "vansales",
		BillingAddress: OrderAddress{
			FirstName:   first,
			LastName:    last,
			Company:     addr.Company,
			Street1:     addr.Street1,
			Street2:     addr.Street2,
			City:        addr.City,
			State:       addr.State,
			Zip:         addr.Zip,
			Country:     addr.Country,
			CountryISO2: addr.CountryISO2,
			Phone:       addr.Phone,
			Email:       addr.Email,
		},
	}
	if req.BillingAddress.Company == "" {
		req.BillingAddress.Company = order.CustomerName
	}
	if req.BillingAddress.Email == "" && order.CustomerEmail != nil {
		req.BillingAddress.Email = *order.CustomerEmail
	}
	if order.BigCommerceCustomerID != nil {
		req.CustomerID = *order.BigCommerceCustomerID
	}
	if order.OrderNote != nil {
		req.StaffNotes = *order.OrderNote
	}

	for _, item := range order.Items {
		if item.BigCommerceProductID == nil {
			return nil, fmt.Errorf("item %q has no bigcommerce product id", item.Name)
		}
		line := OrderProduct{
			ProductID:   *item.BigCommerceProductID,
			Quantity:    item.Quantity,
			PriceIncTax: item.PriceAtSale,
			PriceExTax:  item.PriceAtSale,
		}
		for _, ov := range item.OptionValues {
			line.ProductOptions = append(line.ProductOptions, ProductOption{
				ID:    ov.OptionID,
				Value: strconv.FormatInt(ov.ID, 10),
			})
		}
		req.Products = append(req.Products, line)
	}

	return req, nil
}
