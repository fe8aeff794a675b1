// Package cart holds the per-session shopping cart of a sales agent.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"vansales-service/internal/models"
)

var (
	// ErrInvalidQuantity is returned when adding a non-positive quantity
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrUnknownVariant is returned when a variant does not belong to the product
	ErrUnknownVariant = errors.New("variant does not belong to product")
)

// LineKey identifies a cart line. The same product with different variants
// occupies different lines.
type LineKey struct {
	ProductID int64
	VariantID int64
}

// Line is one product or product variant in the cart
type Line struct {
	Product  models.Product
	Variant  *models.Variant
	Quantity int
}

// Key returns the line key
func (l Line) Key() LineKey {
	key := LineKey{ProductID: l.Product.ID}
	if l.Variant != nil {
		key.VariantID = l.Variant.ID
	}
	return key
}

// UnitPrice is the variant price when a variant is chosen, the product price otherwise
func (l Line) UnitPrice() decimal.Decimal {
	if l.Variant != nil {
		return l.Variant.Price
	}
	return l.Product.Price
}

// Total returns unit price multiplied by quantity
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item snapshots the line as an order item
func (l Line) Item() models.OrderItem {
	bcID := l.Product.BigCommerceID
	item := models.OrderItem{
		ProductID:            l.Product.ID,
		BigCommerceProductID: &bcID,
		Quantity:             l.Quantity,
		PriceAtSale:          l.UnitPrice(),
		Name:                 l.Product.Name,
		SKU:                  l.Product.SKU,
		Image:                l.Product.Image,
	}
	if l.Variant != nil {
		variantID := l.Variant.ID
		item.VariantID = &variantID
		item.OptionValues = append([]models.OptionValue(nil), l.Variant.OptionValues...)
		if l.Variant.SKU != "" {
			item.SKU = l.Variant.SKU
		}
	}
	return item
}

// Cart is an ordered list of lines. The zero value is an empty cart.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

// Add adds quantity of a product, or of one of its variants when variantID is set.
// Adding an existing line increases its quantity.
func (c *Cart) Add(product models.Product, variantID *int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	line := Line{Product: product, Quantity: quantity}
	if variantID != nil {
		v, ok := product.Variant(*variantID)
		if !ok {
			return fmt.Errorf("variant %d of product %d: %w", *variantID, product.ID, ErrUnknownVariant)
		}
		variant := *v
		line.Variant = &variant
	}

	if i := c.index(line.Key()); i >= 0 {
		c.lines[i].Quantity += quantity
		return nil
	}
	c.lines = append(c.lines, line)
	return nil
}

// UpdateQuantity changes a line quantity by delta, removing the line at zero or below
func (c *Cart) UpdateQuantity(key LineKey, delta int) {
	i := c.index(key)
	if i < 0 {
		return
	}
	c.lines[i].Quantity += delta
	if c.lines[i].Quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Remove deletes a line
func (c *Cart) Remove(key LineKey) {
	if i := c.index(key); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// Len returns the number of lines
func (c *Cart) Len() int {
	return len(c.lines)
}

// Total sums all line totals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Items snapshots the cart as order items
func (c *Cart) Items() []models.OrderItem {
	items := make([]models.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, l.Item())
	}
	return items
}

// FromItems rebuilds a cart view over order items so their total can be
// recomputed with the same line arithmetic the client uses.
func FromItems(items []models.OrderItem) *Cart {
	c := &Cart{}
	for _, item := range items {
		line := Line{
			Product: models.Product{
				ID:    item.ProductID,
				Name:  item.Name,
				SKU:   item.SKU,
				Price: item.PriceAtSale,
				Image: item.Image,
			},
			Quantity: item.Quantity,
		}
		if item.BigCommerceProductID != nil {
			line.Product.BigCommerceID = *item.BigCommerceProductID
		}
		if item.VariantID != nil {
			line.Variant = &models.Variant{
				ID:           *item.VariantID,
				SKU:          item.SKU,
				Price:        item.PriceAtSale,
				OptionValues: item.OptionValues,
			}
		}
		c.lines = append(c.lines, line)
	}
	return c
}

func (c *Cart) index(key LineKey) int {
	for i, l := range c.lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
