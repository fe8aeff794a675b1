package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/cart"
	"vansales-service/internal/models"
)

func TestSubmitSyncsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	assert.True(t, result.BigCommerce.Success)
	require.NotNil(t, result.BigCommerce.OrderID)
	assert.Equal(t, int64(5000), *result.BigCommerce.OrderID)

	assert.Equal(t, models.OrderStatusSynced, result.Order.Status)
	require.NotNil(t, result.Order.BigCommerceOrderID)
	assert.Equal(t, int64(5000), *result.Order.BigCommerceOrderID)
	assert.Nil(t, result.Order.SyncError)

	assert.False(t, result.GoogleSheets.Success)
	assert.Equal(t, "webhook not configured", result.GoogleSheets.Error)

	require.Len(t, f.gw.OrderRequests, 1)
	payload := f.gw.OrderRequests[0]
	assert.Equal(t, "Corner", payload.BillingAddress.FirstName)
	assert.Equal(t, "Shop", payload.BillingAddress.LastName)
	assert.Equal(t, "Corner Shop", payload.BillingAddress.Company)
	assert.Len(t, payload.Products, 2)

	assert.Equal(t, []string{models.EventTypeOrderSubmitted, models.EventTypeOrderSynced}, f.events.EventTypes())
}

func TestSubmitMirrorsToWebhook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.settings.Set(ctx, models.SettingGoogleSheetsWebhook, json.RawMessage(`"https://script.google.com/macros/s/abc/exec"`))
	require.NoError(t, err)

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	assert.True(t, result.GoogleSheets.Success)
	assert.True(t, result.Order.GoogleSheetsLogged)
	assert.Equal(t, []int64{result.Order.ID}, f.mirror.Posted)
	assert.Equal(t, []string{"https://script.google.com/macros/s/abc/exec"}, f.mirror.URLs)
}

func TestSubmitMirrorFailureIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mirror.Err = errors.New("webhook returned HTTP 500: boom")

	_, err := f.settings.Set(ctx, models.SettingGoogleSheetsWebhook, json.RawMessage(`"https://hooks.example.com/sheet"`))
	require.NoError(t, err)

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	assert.True(t, result.BigCommerce.Success)
	assert.False(t, result.GoogleSheets.Success)
	assert.Contains(t, result.GoogleSheets.Error, "500")
	assert.False(t, result.Order.GoogleSheetsLogged)
}

func TestSubmitRejectsAddressWithoutStreet(t *testing.T) {
	f := newFixture(t)

	req := f.validRequest()
	req.BillingAddress.Street1 = "   "

	_, err := f.orders.Submit(context.Background(), req)
	require.Error(t, err)

	verr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "billing_address.street_1", verr.Field)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, 0, f.gw.CallCount())
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *OrderRequest)
		field  string
	}{
		{"missing customer", func(r *OrderRequest) { r.CustomerName = "" }, "customer_name"},
		{"missing address", func(r *OrderRequest) { r.BillingAddress = nil }, "billing_address"},
		{"no items", func(r *OrderRequest) { r.Items = nil }, "items"},
		{"zero quantity", func(r *OrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(r *OrderRequest) { r.Items[1].PriceAtSale = dec("-1") }, "items[1].price_at_sale"},
		{"missing product", func(r *OrderRequest) { r.Items[0].ProductID = 0 }, "items[0].product_id"},
		{"missing total", func(r *OrderRequest) { r.Total = nil }, "total"},
		{"total mismatch", func(r *OrderRequest) { r.Total = decPtr("7.49") }, "total"},
		{"sub-cent price", func(r *OrderRequest) {
			r.Items = r.Items[:1]
			r.Items[0].Quantity = 3
			r.Items[0].PriceAtSale = dec("0.333")
			r.Total = decPtr("0.999")
		}, "items[0].price_at_sale"},
		{"sub-cent total", func(r *OrderRequest) { r.Total = decPtr("7.505") }, "total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.validRequest()
			tt.mutate(req)

			_, err := f.orders.Submit(context.Background(), req)
			verr, ok := IsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, f.store.OrderCount())
		})
	}
}

func TestSubmitAcceptsEquivalentTotal(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.Total = decPtr("7.5")

	_, err := f.orders.Submit(context.Background(), req)
	assert.NoError(t, err)
}

func TestSubmitAcceptsTrailingZeroPrices(t *testing.T) {
	f := newFixture(t)
	req := f.validRequest()
	req.Items[0].PriceAtSale = dec("2.2500")
	req.Total = decPtr("7.500")

	result, err := f.orders.Submit(context.Background(), req)
	require.NoError(t, err)

	var sum decimal.Decimal
	for _, item := range result.Order.Items {
		sum = sum.Add(item.PriceAtSale.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, sum.Equal(models.RoundPrice(result.Order.Total)))
}

func TestSubmitLocalUpdateFailureKeepsRemoteID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailMarkSynced = errors.New("connection reset")

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	assert.False(t, result.BigCommerce.Success)
	require.NotNil(t, result.BigCommerce.OrderID)
	assert.Equal(t, int64(5000), *result.BigCommerce.OrderID)
	assert.Contains(t, result.BigCommerce.Error, "5000")

	stored, err := f.store.GetOrderByID(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingSync, stored.Status)
	require.NotNil(t, stored.SyncError)
	assert.Contains(t, *stored.SyncError, "created BigCommerce order 5000")

	f.store.FailMarkSynced = nil
	_, err = f.orders.ResubmitDraft(ctx, f.agent, stored.ID, &ResubmitRequest{})
	_, ok := IsConflictError(err)
	assert.True(t, ok, "an order BigCommerce accepted must not be sent again")
	assert.Equal(t, 1, f.gw.CallCount())
}

func TestSubmitGatewayRejectionKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateOrderErr = &bigcommerce.APIError{
		Operation:  "create_order",
		StatusCode: 422,
		Body:       `{"title":"The field 'billing_address' is invalid."}`,
	}

	result, err := f.orders.Submit(context.Background(), f.validRequest())
	require.NoError(t, err)

	assert.False(t, result.BigCommerce.Success)
	assert.Nil(t, result.BigCommerce.OrderID)
	assert.Contains(t, result.BigCommerce.Error, "422")

	stored, err := f.store.GetOrderByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPendingSync, stored.Status)
	require.NotNil(t, stored.SyncError)
	assert.NotEmpty(t, *stored.SyncError)
	assert.Nil(t, stored.BigCommerceOrderID)

	assert.Equal(t, []string{models.EventTypeOrderSubmitted, models.EventTypeOrderSyncFailed}, f.events.EventTypes())
}

func TestSubmitWithoutCredentials(t *testing.T) {
	f := newFixtureWithDefaults(t, SettingsDefaults{})

	result, err := f.orders.Submit(context.Background(), f.validRequest())
	require.NoError(t, err)

	assert.False(t, result.BigCommerce.Success)
	assert.Equal(t, ErrGatewayNotConfigured.Error(), result.BigCommerce.Error)
	assert.Equal(t, models.OrderStatusPendingSync, result.Order.Status)
	assert.Equal(t, 0, f.gatewaysBuilt)
}

func TestSubmitUsesStoredCredentials(t *testing.T) {
	f := newFixtureWithDefaults(t, SettingsDefaults{})
	ctx := context.Background()

	_, err := f.settings.Set(ctx, models.SettingBigCommerceConfig, json.RawMessage(`{"storeHash":"abc","token":"xyz"}`))
	require.NoError(t, err)

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)
	assert.True(t, result.BigCommerce.Success)
	assert.Equal(t, 1, f.gatewaysBuilt)
}

func TestSubmitResolvesRemoteProductIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	local := f.store.AddProduct(models.Product{BigCommerceID: 4242, Name: "Water", Price: dec("1.00"), IsPinned: true})

	req := f.validRequest()
	req.Items = []models.OrderItem{{ProductID: local.ID, Name: "Water", Quantity: 4, PriceAtSale: dec("1.00")}}
	req.Total = decPtr("4")

	result, err := f.orders.Submit(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.BigCommerce.Success)

	require.Len(t, f.gw.OrderRequests, 1)
	assert.Equal(t, int64(4242), f.gw.OrderRequests[0].Products[0].ProductID)
}

func TestSubmitDuplicateIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.IdempotencyKey = "tablet-7-order-19"
	first, err := f.orders.Submit(ctx, req)
	require.NoError(t, err)

	again := f.validRequest()
	again.IdempotencyKey = "tablet-7-order-19"
	_, err = f.orders.Submit(ctx, again)

	cerr, ok := IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, first.Order.ID, cerr.ExistingID)
	assert.Equal(t, 1, f.store.OrderCount())
	assert.Len(t, f.gw.OrderRequests, 1)
}

func TestSubmitReleasesKeyWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.FailCreateOrder = errors.New("connection reset")
	req := f.validRequest()
	req.IdempotencyKey = "retry-me"
	_, err := f.orders.Submit(ctx, req)
	require.Error(t, err)
	_, isConflict := IsConflictError(err)
	assert.False(t, isConflict)

	f.store.FailCreateOrder = nil
	req = f.validRequest()
	req.IdempotencyKey = "retry-me"
	_, err = f.orders.Submit(ctx, req)
	assert.NoError(t, err)
}

func TestSyncedOrdersAlwaysHaveRemoteID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if i%2 == 0 {
			f.gw.CreateOrderErr = errors.New("bigcommerce create_order request failed: timeout")
		} else {
			f.gw.CreateOrderErr = nil
		}
		_, err := f.orders.Submit(ctx, f.validRequest())
		require.NoError(t, err)
	}

	orders, err := f.store.ListOrdersByUser(ctx, f.agent.ID)
	require.NoError(t, err)
	require.Len(t, orders, 6)

	synced := 0
	for _, o := range orders {
		if o.Status == models.OrderStatusSynced {
			synced++
			assert.NotNil(t, o.BigCommerceOrderID, "order %d", o.ID)
		} else {
			assert.NotNil(t, o.SyncError, "order %d", o.ID)
		}
	}
	assert.Equal(t, 3, synced)
}

func TestCheckoutTotalsMatchStoredItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	soda := models.Product{ID: 1, BigCommerceID: 1001, Name: "Soda", Price: dec("1.15")}
	tee := models.Product{ID: 2, BigCommerceID: 1002, Name: "Tee", Price: dec("12.00"),
		Variants: models.Variants{{ID: 31, SKU: "TEE-M", Price: dec("13.35")}}}

	c := cart.New()
	require.NoError(t, c.Add(soda, nil, 7))
	require.NoError(t, c.Add(tee, int64Ptr(31), 3))
	total := c.Total()

	req := f.validRequest()
	req.Items = c.Items()
	req.Total = &total

	result, err := f.orders.Submit(ctx, req)
	require.NoError(t, err)

	stored, err := f.store.GetOrderByID(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.True(t, models.ItemsTotal(stored.Items).Equal(stored.Total))
	assert.True(t, dec("48.10").Equal(stored.Total))
}

func TestDistinctVariantsAreDistinctItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tee := models.Product{ID: 2, BigCommerceID: 1002, Name: "Tee", Price: dec("12.00"),
		Variants: models.Variants{
			{ID: 31, SKU: "TEE-S", Price: dec("11.00"), OptionValues: []models.OptionValue{{ID: 501, OptionID: 9, Label: "S"}}},
			{ID: 32, SKU: "TEE-L", Price: dec("14.00"), OptionValues: []models.OptionValue{{ID: 502, OptionID: 9, Label: "L"}}},
		}}

	c := cart.New()
	require.NoError(t, c.Add(tee, int64Ptr(31), 1))
	require.NoError(t, c.Add(tee, int64Ptr(32), 2))
	total := c.Total()

	req := f.validRequest()
	req.Items = c.Items()
	req.Total = &total

	result, err := f.orders.Submit(ctx, req)
	require.NoError(t, err)

	items := result.Order.Items
	require.Len(t, items, 2)
	assert.Equal(t, int64(31), *items[0].VariantID)
	assert.True(t, dec("11").Equal(items[0].PriceAtSale))
	assert.Equal(t, int64(32), *items[1].VariantID)
	assert.True(t, dec("14").Equal(items[1].PriceAtSale))

	products := f.gw.OrderRequests[0].Products
	require.Len(t, products, 2)
	assert.Equal(t, []bigcommerce.ProductOption{{ID: 9, Value: "501"}}, products[0].ProductOptions)
	assert.Equal(t, []bigcommerce.ProductOption{{ID: 9, Value: "502"}}, products[1].ProductOptions)
}

func TestSaveDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.BillingAddress = nil

	order, err := f.orders.SaveDraft(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDraft, order.Status)
	assert.Equal(t, 0, f.gw.CallCount())
	assert.Equal(t, []string{models.EventTypeOrderDrafted}, f.events.EventTypes())

	req = f.validRequest()
	req.Total = decPtr("1")
	_, err = f.orders.SaveDraft(ctx, req)
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestResubmitDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.validRequest()
	req.BillingAddress = nil
	draft, err := f.orders.SaveDraft(ctx, req)
	require.NoError(t, err)

	_, err = f.orders.ResubmitDraft(ctx, f.agent, draft.ID, &ResubmitRequest{})
	verr, ok := IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "billing_address", verr.Field)

	result, err := f.orders.ResubmitDraft(ctx, f.agent, draft.ID, &ResubmitRequest{
		BigCommerceCustomerID: int64Ptr(77),
		BillingAddress:        &models.Address{Street1: "9 Elm St", City: "Dallas"},
	})
	require.NoError(t, err)
	assert.True(t, result.BigCommerce.Success)
	assert.Equal(t, models.OrderStatusSynced, result.Order.Status)
	require.NotNil(t, result.Order.BigCommerceCustomerID)
	assert.Equal(t, int64(77), *result.Order.BigCommerceCustomerID)
	assert.Equal(t, int64(77), f.gw.OrderRequests[0].CustomerID)
	assert.Equal(t, "9 Elm St", f.gw.OrderRequests[0].BillingAddress.Street1)

	_, err = f.orders.ResubmitDraft(ctx, f.agent, draft.ID, &ResubmitRequest{})
	_, ok = IsConflictError(err)
	assert.True(t, ok, "synced orders cannot be resubmitted")
}

func TestResubmitFailedSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.gw.CreateOrderErr = errors.New("bigcommerce create_order failed: HTTP 502: bad gateway")
	first, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)
	require.False(t, first.BigCommerce.Success)

	f.gw.CreateOrderErr = nil
	result, err := f.orders.ResubmitDraft(ctx, f.agent, first.Order.ID, &ResubmitRequest{})
	require.NoError(t, err)
	assert.True(t, result.BigCommerce.Success)
	assert.Equal(t, models.OrderStatusSynced, result.Order.Status)
	assert.Nil(t, result.Order.SyncError)
}

func TestResubmitRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.store.AddOrder(models.Order{
		CustomerName:    "Shop",
		Status:          models.OrderStatusPendingSync,
		BillingAddress:  &models.Address{Street1: "1 Main"},
		Items:           models.OrderItems{{ProductID: 1, Quantity: 1, PriceAtSale: dec("1")}},
		Total:           dec("1"),
		CreatedByUserID: f.agent.ID,
	})

	_, err := f.orders.ResubmitDraft(ctx, f.agent, pending.ID, &ResubmitRequest{})
	_, ok := IsConflictError(err)
	assert.True(t, ok, "pending order without a sync error is not retryable")

	_, err = f.orders.ResubmitDraft(ctx, f.other, pending.ID, &ResubmitRequest{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.ResubmitDraft(ctx, f.agent, 9999, &ResubmitRequest{})
	_, ok = IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, f.agent, result.Order.ID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, f.admin, result.Order.ID)
	assert.NoError(t, err)
	_, err = f.orders.GetOrder(ctx, f.other, result.Order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.ListByUser(ctx, f.other, f.agent.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	orders, err := f.orders.ListByUser(ctx, f.admin, f.agent.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestListDraftsAndPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.validRequest()
	_, err := f.orders.SaveDraft(ctx, mine)
	require.NoError(t, err)

	theirs := f.validRequest()
	theirs.UserID = f.other.ID
	_, err = f.orders.SaveDraft(ctx, theirs)
	require.NoError(t, err)

	f.gw.CreateOrderErr = errors.New("down")
	_, err = f.orders.Submit(ctx, f.validRequest())
	require.NoError(t, err)

	drafts, err := f.orders.ListDrafts(ctx, f.agent)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	drafts, err = f.orders.ListDrafts(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	pending, err := f.orders.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestActivityRequiresOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.Activity(context.Background(), 12345)
	_, ok := IsNotFoundError(err)
	assert.True(t, ok)
}
