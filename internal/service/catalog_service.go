package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
	"vansales-service/internal/store"
	"vansales-service/internal/util"
)

const (
	resyncLockKey = "catalog-resync"
	resyncLockTTL = 10 * time.Minute
)

// CatalogService curates the pinned product catalog
type CatalogService struct {
	products  ProductRepository
	settings  *SettingsService
	publisher EventPublisher
	locker    Locker
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service. locker may be nil.
func NewCatalogService(products ProductRepository, settings *SettingsService, publisher EventPublisher, locker Locker) *CatalogService {
	return &CatalogService{
		products:  products,
		settings:  settings,
		publisher: publisher,
		locker:    locker,
		logger:    util.Component("catalog"),
	}
}

// ResyncResult counts the outcome of a catalog resync
type ResyncResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// ListAll returns every local product, pinned first
func (s *CatalogService) ListAll(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListPinned returns the products visible to agents
func (s *CatalogService) ListPinned(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListPinnedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned products: %w", err)
	}
	return products, nil
}

// SetPinned changes the pinned flag of a local product
func (s *CatalogService) SetPinned(ctx context.Context, productID int64, pinned bool) error {
	err := s.products.UpdateProductPin(ctx, productID, pinned)
	if errors.Is(err, store.ErrNotFound) {
		return NewNotFoundError("product", productID)
	}
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}

	s.logger.Info("Product pin updated", zap.Int64("product_id", productID), zap.Bool("pinned", pinned))
	return nil
}

// ImportAndPin pins the local copy of a BigCommerce product, creating it when missing
func (s *CatalogService) ImportAndPin(ctx context.Context, product *models.Product) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ImportAndPin")
	defer span.End()

	if product.BigCommerceID <= 0 {
		return nil, NewValidationError("bigcommerce_id", "is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return nil, NewValidationError("name", "is required")
	}
	if product.Price.IsNegative() {
		return nil, NewValidationError("price", "must not be negative")
	}

	existing, err := s.products.GetProductByBigCommerceID(ctx, product.BigCommerceID)
	switch {
	case err == nil:
		if !existing.IsPinned {
			if err := s.products.UpdateProductPin(ctx, existing.ID, true); err != nil {
				return nil, fmt.Errorf("failed to pin product: %w", err)
			}
			existing.IsPinned = true
		}
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	product.ID = 0
	product.IsPinned = true
	product.Description = bigcommerce.StripHTML(product.Description)
	product.Price = models.RoundPrice(product.Price)
	for i := range product.Variants {
		product.Variants[i].Price = models.RoundPrice(product.Variants[i].Price)
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// lost a race with a concurrent import of the same product
			if existing, lookupErr := s.products.GetProductByBigCommerceID(ctx, product.BigCommerceID); lookupErr == nil {
				if err := s.products.UpdateProductPin(ctx, existing.ID, true); err != nil {
					return nil, fmt.Errorf("failed to pin product: %w", err)
				}
				existing.IsPinned = true
				return existing, nil
			}
			return nil, NewConflictError("product", "product already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product imported",
		zap.Int64("product_id", product.ID),
		zap.Int64("bigcommerce_id", product.BigCommerceID))
	return product, nil
}

// Resync refreshes every pinned product from BigCommerce
func (s *CatalogService) Resync(ctx context.Context) (*ResyncResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Resync")
	defer span.End()

	pinned, err := s.products.ListPinnedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned products: %w", err)
	}
	if len(pinned) == 0 {
		return &ResyncResult{}, nil
	}

	gw, err := s.settings.Gateway(ctx)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		token, acquired, err := s.locker.AcquireLock(ctx, resyncLockKey, resyncLockTTL)
		switch {
		case err != nil:
			s.logger.Warn("Resync lock unavailable, continuing", zap.Error(err))
		case !acquired:
			return nil, ErrResyncInProgress
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.Background(), resyncLockKey, token); err != nil {
					s.logger.Warn("Failed to release resync lock", zap.Error(err))
				}
			}()
		}
	}

	result := &ResyncResult{}
	for i := range pinned {
		if err := s.resyncProduct(ctx, gw, &pinned[i]); err != nil {
			result.Errors++
			util.CatalogResyncProductsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Failed to resync product",
				zap.Int64("product_id", pinned[i].ID),
				zap.Int64("bigcommerce_id", pinned[i].BigCommerceID),
				zap.Error(err))
			continue
		}
		result.Updated++
		util.CatalogResyncProductsTotal.WithLabelValues("updated").Inc()
	}

	s.logger.Info("Catalog resync finished", zap.Int("updated", result.Updated), zap.Int("errors", result.Errors))
	s.publishResynced(ctx, result)
	return result, nil
}

func (s *CatalogService) resyncProduct(ctx context.Context, gw Gateway, local *models.Product) error {
	remote, err := gw.GetProduct(ctx, local.BigCommerceID)
	if err != nil {
		return err
	}

	fresh := remote.ToProduct()
	local.Name = fresh.Name
	local.SKU = fresh.SKU
	local.Price = fresh.Price
	local.StockLevel = fresh.StockLevel
	local.Image = fresh.Image
	local.Description = fresh.Description
	if len(fresh.Variants) > 0 {
		local.Variants = fresh.Variants
	}

	return s.products.UpdateProductCatalog(ctx, local)
}

func (s *CatalogService) publishResynced(ctx context.Context, result *ResyncResult) {
	if s.publisher == nil {
		return
	}
	event := &models.CatalogResyncedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogResynced,
			Timestamp: time.Now(),
		},
		Updated: result.Updated,
		Errors:  result.Errors,
	}
	if err := s.publisher.PublishCatalogResynced(ctx, event); err != nil {
		s.logger.Error("Failed to publish catalog event", zap.Error(err))
	}
}

// RemoteProduct is a BigCommerce search result annotated with local pin state
type RemoteProduct struct {
	models.Product
	LocalID *int64 `json:"local_id,omitempty"`
}

// SearchRemoteProducts searches BigCommerce and flags results already pinned locally
func (s *CatalogService) SearchRemoteProducts(ctx context.Context, query string) ([]RemoteProduct, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.SearchRemoteProducts")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("query", "is required")
	}

	gw, err := s.settings.Gateway(ctx)
	if err != nil {
		return nil, err
	}

	found, err := gw.SearchProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("bigcommerce product search failed: %w", err)
	}

	pinned, err := s.products.ListPinnedProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pinned products: %w", err)
	}
	pinnedByRemote := make(map[int64]int64, len(pinned))
	for _, p := range pinned {
		pinnedByRemote[p.BigCommerceID] = p.ID
	}

	results := make([]RemoteProduct, 0, len(found))
	for _, cp := range found {
		r := RemoteProduct{Product: cp.ToProduct()}
		r.ID = cp.ID
		if localID, ok := pinnedByRemote[cp.ID]; ok {
			r.IsPinned = true
			id := localID
			r.LocalID = &id
		}
		results = append(results, r)
	}
	return results, nil
}

// SearchCustomers searches BigCommerce customers by name or email
func (s *CatalogService) SearchCustomers(ctx context.Context, query string) ([]bigcommerce.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("query", "is required")
	}

	gw, err := s.settings.Gateway(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := gw.SearchCustomers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("bigcommerce customer search failed: %w", err)
	}
	return customers, nil
}

// CustomerAddresses lists the stored addresses of a BigCommerce customer
func (s *CatalogService) CustomerAddresses(ctx context.Context, customerID int64) ([]bigcommerce.CustomerAddress, error) {
	if customerID <= 0 {
		return nil, NewValidationError("id", "must be a positive customer id")
	}

	gw, err := s.settings.Gateway(ctx)
	if err != nil {
		return nil, err
	}
	addresses, err := gw.GetCustomerAddresses(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("bigcommerce address lookup failed: %w", err)
	}
	return addresses, nil
}
