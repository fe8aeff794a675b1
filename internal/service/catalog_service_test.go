package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
)

func TestImportAndPinIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := func() *models.Product {
		return &models.Product{BigCommerceID: 1001, Name: "Cola 12oz", SKU: "COLA-12", Price: dec("2.25"),
			Description: "<p>Classic</p>"}
	}

	first, err := f.catalog.ImportAndPin(ctx, product())
	require.NoError(t, err)
	assert.True(t, first.IsPinned)
	assert.Equal(t, "Classic", first.Description)

	second, err := f.catalog.ImportAndPin(ctx, product())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsPinned)
}

func TestImportAndPinRepinsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := f.store.AddProduct(models.Product{BigCommerceID: 77, Name: "Chips", Price: dec("1")})

	got, err := f.catalog.ImportAndPin(ctx, &models.Product{BigCommerceID: 77, Name: "Chips", Price: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.True(t, got.IsPinned)

	stored, err := f.store.GetProductByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPinned)
}

func TestImportAndPinLostRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.BeforeCreateProduct = func() {
		f.store.BeforeCreateProduct = nil
		f.store.AddProduct(models.Product{BigCommerceID: 88, Name: "Chips", Price: dec("1")})
	}

	got, err := f.catalog.ImportAndPin(ctx, &models.Product{BigCommerceID: 88, Name: "Chips", Price: dec("1")})
	require.NoError(t, err)
	assert.True(t, got.IsPinned)

	stored, err := f.store.GetProductByID(ctx, got.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPinned)
}

func TestImportAndPinRoundsPrices(t *testing.T) {
	f := newFixture(t)

	got, err := f.catalog.ImportAndPin(context.Background(), &models.Product{BigCommerceID: 90, Name: "Gum",
		Price: dec("0.333"), Variants: models.Variants{{ID: 1, Price: dec("0.4449")}}})
	require.NoError(t, err)
	assert.True(t, dec("0.33").Equal(got.Price))
	assert.True(t, dec("0.44").Equal(got.Variants[0].Price))
}

func TestImportAndPinValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.ImportAndPin(context.Background(), &models.Product{Name: "No id"})
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestSetPinned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.store.AddProduct(models.Product{BigCommerceID: 5, Name: "Gum", IsPinned: true})
	require.NoError(t, f.catalog.SetPinned(ctx, p.ID, false))

	pinned, err := f.catalog.ListPinned(ctx)
	require.NoError(t, err)
	assert.Empty(t, pinned)

	err = f.catalog.SetPinned(ctx, 999, true)
	_, ok := IsNotFoundError(err)
	assert.True(t, ok)
}

func TestResyncWithNothingPinned(t *testing.T) {
	f := newFixture(t)
	f.store.AddProduct(models.Product{BigCommerceID: 5, Name: "Unpinned"})

	result, err := f.catalog.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, f.gw.CallCount())
	assert.Equal(t, 0, f.gatewaysBuilt)
}

func TestResyncKeepsVariantsOnEmptyResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	variants := models.Variants{
		{ID: 31, SKU: "TEE-S", Price: dec("11.00")},
		{ID: 32, SKU: "TEE-L", Price: dec("14.00")},
	}
	local := f.store.AddProduct(models.Product{BigCommerceID: 1002, Name: "Tee", Price: dec("12"), IsPinned: true, Variants: variants})

	f.gw.Products[1002] = &bigcommerce.CatalogProduct{
		ID: 1002, Name: "Tee (new)", SKU: "TEE", Price: dec("12.50"), InventoryLevel: 40,
		Description: "<b>Cotton</b>", PrimaryImage: &bigcommerce.Image{URLStandard: "https://cdn/tee.jpg"},
	}

	result, err := f.catalog.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Errors)

	stored, err := f.store.GetProductByID(ctx, local.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tee (new)", stored.Name)
	assert.True(t, dec("12.50").Equal(stored.Price))
	assert.Equal(t, 40, stored.StockLevel)
	assert.Equal(t, "Cotton", stored.Description)
	assert.Equal(t, "https://cdn/tee.jpg", stored.Image)
	assert.True(t, stored.IsPinned)
	require.Len(t, stored.Variants, 2)
	assert.Equal(t, int64(31), stored.Variants[0].ID)
}

func TestResyncReplacesVariantsAndCountsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok := f.store.AddProduct(models.Product{BigCommerceID: 1, Name: "A", IsPinned: true,
		Variants: models.Variants{{ID: 1, Price: dec("1")}}})
	f.store.AddProduct(models.Product{BigCommerceID: 2, Name: "B", IsPinned: true})
	f.gw.GetProductErr[2] = errors.New("bigcommerce get_product failed: HTTP 500: oops")

	price := dec("3.00")
	f.gw.Products[1] = &bigcommerce.CatalogProduct{ID: 1, Name: "A", Price: dec("2"),
		Variants: []bigcommerce.CatalogVariant{{ID: 9, SKU: "A-9", Price: &price}}}

	result, err := f.catalog.Resync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Errors)

	stored, err := f.store.GetProductByID(ctx, ok.ID)
	require.NoError(t, err)
	require.Len(t, stored.Variants, 1)
	assert.Equal(t, int64(9), stored.Variants[0].ID)
	assert.True(t, price.Equal(stored.Variants[0].Price))

	require.Len(t, f.events.CatalogEvents, 1)
	assert.Equal(t, 1, f.events.CatalogEvents[0].Errors)
	assert.False(t, f.keys.Held(resyncLockKey))
}

func TestResyncRoundsSubCentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	local := f.store.AddProduct(models.Product{BigCommerceID: 5, Name: "Tea", IsPinned: true, Price: dec("1")})
	variantPrice := dec("1.005")
	f.gw.Products[5] = &bigcommerce.CatalogProduct{ID: 5, Name: "Tea", Price: dec("2.3456"),
		Variants: []bigcommerce.CatalogVariant{{ID: 3, SKU: "TEA-3", Price: &variantPrice}}}

	_, err := f.catalog.Resync(ctx)
	require.NoError(t, err)

	stored, err := f.store.GetProductByID(ctx, local.ID)
	require.NoError(t, err)
	assert.True(t, dec("2.35").Equal(stored.Price))
	require.Len(t, stored.Variants, 1)
	assert.True(t, dec("1.01").Equal(stored.Variants[0].Price))
}

func TestResyncRefusesOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddProduct(models.Product{BigCommerceID: 1, Name: "A", IsPinned: true})

	_, held, err := f.keys.AcquireLock(ctx, resyncLockKey, resyncLockTTL)
	require.NoError(t, err)
	require.True(t, held)

	_, err = f.catalog.Resync(ctx)
	assert.ErrorIs(t, err, ErrResyncInProgress)
	assert.Equal(t, 0, f.gw.CallCount())
}

func TestResyncWithoutCredentials(t *testing.T) {
	f := newFixtureWithDefaults(t, SettingsDefaults{})
	f.store.AddProduct(models.Product{BigCommerceID: 1, Name: "A", IsPinned: true})

	_, err := f.catalog.Resync(context.Background())
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}

func TestSearchRemoteProductsFlagsPinned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	local := f.store.AddProduct(models.Product{BigCommerceID: 1001, Name: "Cola", IsPinned: true})
	f.store.AddProduct(models.Product{BigCommerceID: 1003, Name: "Old", IsPinned: false})
	f.gw.SearchResults = []bigcommerce.CatalogProduct{
		{ID: 1001, Name: "Cola", Description: "<p>Fizzy</p>"},
		{ID: 1003, Name: "Old"},
		{ID: 2000, Name: "New"},
	}

	results, err := f.catalog.SearchRemoteProducts(ctx, "co")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].IsPinned)
	assert.Equal(t, "Fizzy", results[0].Description)
	require.NotNil(t, results[0].LocalID)
	assert.Equal(t, local.ID, *results[0].LocalID)
	assert.False(t, results[1].IsPinned)
	assert.False(t, results[2].IsPinned)
	assert.Equal(t, int64(2000), results[2].BigCommerceID)

	_, err = f.catalog.SearchRemoteProducts(ctx, "  ")
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestCustomerLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.gw.Customers = []bigcommerce.Customer{{ID: 3, FirstName: "Ana"}}
	f.gw.Addresses[3] = []bigcommerce.CustomerAddress{{ID: 1, CustomerID: 3, Address1: "1 Main"}}

	customers, err := f.catalog.SearchCustomers(ctx, "Ana")
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	addrs, err := f.catalog.CustomerAddresses(ctx, 3)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "1 Main", addrs[0].ToAddress().Street1)

	_, err = f.catalog.CustomerAddresses(ctx, 0)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}
