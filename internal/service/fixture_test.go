package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
	"vansales-service/internal/testutil"
)

type fixture struct {
	store    *testutil.MemoryStore
	gw       *testutil.FakeGateway
	mirror   *testutil.FakeMirror
	events   *testutil.RecordingPublisher
	keys     *testutil.MemoryKeys
	settings *SettingsService
	orders   *OrderService
	catalog  *CatalogService

	admin *models.User
	agent *models.User
	other *models.User

	gatewaysBuilt int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDefaults(t, SettingsDefaults{
		BigCommerce: bigcommerce.Credentials{StoreHash: "store", Token: "token"},
	})
}

func newFixtureWithDefaults(t *testing.T, defaults SettingsDefaults) *fixture {
	t.Helper()

	f := &fixture{
		store:  testutil.NewMemoryStore(),
		gw:     testutil.NewFakeGateway(),
		mirror: &testutil.FakeMirror{},
		events: &testutil.RecordingPublisher{},
		keys:   testutil.NewMemoryKeys(),
	}

	f.settings = NewSettingsService(f.store, defaults, func(creds bigcommerce.Credentials) (Gateway, error) {
		f.gatewaysBuilt++
		return f.gw, nil
	})
	f.orders = NewOrderService(f.store, f.store, f.store, f.settings, f.mirror, f.events, f.keys)
	f.catalog = NewCatalogService(f.store, f.settings, f.events, f.keys)

	f.admin = f.store.AddUser(models.User{Username: "admin@vansales.com", Name: "Admin", Role: models.RoleAdmin, IsEnabled: true})
	f.agent = f.store.AddUser(models.User{Username: "agent1", Name: "Agent One", Role: models.RoleAgent, IsEnabled: true})
	f.other = f.store.AddUser(models.User{Username: "agent3", Name: "Agent Three", Role: models.RoleAgent, IsEnabled: true})

	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func int64Ptr(v int64) *int64 { return &v }

// validRequest builds a two-line order of 2 x 2.25 + 1 x 3.00
func (f *fixture) validRequest() *OrderRequest {
	return &OrderRequest{
		CustomerName:   "Corner Shop",
		BillingAddress: &models.Address{Street1: "1 Main St", City: "Austin", Zip: "78701", CountryISO2: "US"},
		Items: []models.OrderItem{
			{ProductID: 1, BigCommerceProductID: int64Ptr(1001), Name: "Cola", Quantity: 2, PriceAtSale: dec("2.25")},
			{ProductID: 2, BigCommerceProductID: int64Ptr(1002), Name: "Chips", Quantity: 1, PriceAtSale: dec("3.00")},
		},
		Total:  decPtr("7.50"),
		UserID: f.agent.ID,
	}
}
