package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vansales-service/internal/models"
)

const productColumns = "id, bigcommerce_id, name, sku, price, image, description, stock_level, is_pinned, variants, updated_at"

// ListProducts retrieves all products, pinned first
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products ORDER BY is_pinned DESC, name, id")
	return products, err
}

// ListPinnedProducts retrieves the products visible to agents
func (s *Store) ListPinnedProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE is_pinned ORDER BY name, id")
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByBigCommerceID retrieves a product by its BigCommerce ID
func (s *Store) GetProductByBigCommerceID(ctx context.Context, bcID int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE bigcommerce_id = $1", bcID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bigcommerce product %d: %w", bcID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (bigcommerce_id, name, sku, price, image, description, stock_level, is_pinned, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		p.BigCommerceID, p.Name, p.SKU, p.Price, p.Image, p.Description, p.StockLevel, p.IsPinned, p.Variants,
	).Scan(&p.ID, &p.UpdatedAt)
	return translateError(err)
}

// UpdateProductPin sets the pinned flag of a product
func (s *Store) UpdateProductPin(ctx context.Context, id int64, pinned bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_pinned = $1, updated_at = NOW() WHERE id = $2", pinned, id)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("product %d: %w", id, ErrNotFound))
}

// UpdateProductCatalog overwrites the catalog fields refreshed from BigCommerce
func (s *Store) UpdateProductCatalog(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, sku = $2, price = $3, image = $4, description = $5,
		    stock_level = $6, variants = $7, updated_at = NOW()
		WHERE id = $8`

	res, err := s.db.ExecContext(ctx, query,
		p.Name, p.SKU, p.Price, p.Image, p.Description, p.StockLevel, p.Variants, p.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, fmt.Errorf("product %d: %w", p.ID, ErrNotFound))
}
