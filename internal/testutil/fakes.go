package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"vansales-service/internal/bigcommerce"
	"vansales-service/internal/models"
)

// FakeGateway records calls and returns canned BigCommerce responses
type FakeGateway struct {
	mu sync.Mutex

	Products       map[int64]*bigcommerce.CatalogProduct
	SearchResults  []bigcommerce.CatalogProduct
	Customers      []bigcommerce.Customer
	Addresses      map[int64][]bigcommerce.CustomerAddress
	NextOrderID    int64
	CreateOrderErr error
	GetProductErr  map[int64]error

	OrderRequests []*bigcommerce.OrderRequest
	Calls         int
}

// NewFakeGateway returns a gateway that creates orders with ids from 5000
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Products:      make(map[int64]*bigcommerce.CatalogProduct),
		Addresses:     make(map[int64][]bigcommerce.CustomerAddress),
		GetProductErr: make(map[int64]error),
		NextOrderID:   5000,
	}
}

func (g *FakeGateway) SearchProducts(ctx context.Context, keyword string) ([]bigcommerce.CatalogProduct, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	return g.SearchResults, nil
}

func (g *FakeGateway) GetProduct(ctx context.Context, productID int64) (*bigcommerce.CatalogProduct, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if err := g.GetProductErr[productID]; err != nil {
		return nil, err
	}
	p, ok := g.Products[productID]
	if !ok {
		return nil, &bigcommerce.APIError{Operation: "get_product", StatusCode: 404, Body: "not found"}
	}
	return p, nil
}

func (g *FakeGateway) SearchCustomers(ctx context.Context, term string) ([]bigcommerce.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	return g.Customers, nil
}

func (g *FakeGateway) GetCustomerAddresses(ctx context.Context, customerID int64) ([]bigcommerce.CustomerAddress, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	return g.Addresses[customerID], nil
}

func (g *FakeGateway) CreateOrder(ctx context.Context, order *bigcommerce.OrderRequest) (*bigcommerce.OrderResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	g.OrderRequests = append(g.OrderRequests, order)
	if g.CreateOrderErr != nil {
		return nil, g.CreateOrderErr
	}
	id := g.NextOrderID
	g.NextOrderID++
	return &bigcommerce.OrderResponse{ID: id, StatusID: order.StatusID}, nil
}

// CallCount returns the number of gateway calls made
func (g *FakeGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Calls
}

// FakeMirror records mirrored orders
type FakeMirror struct {
	mu     sync.Mutex
	Err    error
	Posted []int64
	URLs   []string
}

func (f *FakeMirror) Post(ctx context.Context, webhookURL string, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.URLs = append(f.URLs, webhookURL)
	if f.Err != nil {
		return f.Err
	}
	f.Posted = append(f.Posted, order.ID)
	return nil
}

// RecordingPublisher keeps published events in memory
type RecordingPublisher struct {
	mu            sync.Mutex
	OrderEvents   []models.OrderEvent
	CatalogEvents []models.CatalogResyncedEvent
}

func (p *RecordingPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OrderEvents = append(p.OrderEvents, *event)
	return nil
}

func (p *RecordingPublisher) PublishCatalogResynced(ctx context.Context, event *models.CatalogResyncedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CatalogEvents = append(p.CatalogEvents, *event)
	return nil
}

// EventTypes returns the types of the published order events in order
func (p *RecordingPublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.OrderEvents))
	for _, e := range p.OrderEvents {
		types = append(types, e.EventType)
	}
	return types
}

// MemoryKeys implements idempotency keys and locks in memory
type MemoryKeys struct {
	mu   sync.Mutex
	keys map[string]string
	next int
}

// NewMemoryKeys returns an empty key store
func NewMemoryKeys() *MemoryKeys {
	return &MemoryKeys{keys: make(map[string]string)}
}

func (k *MemoryKeys) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	val, ok := k.keys["idempotency:"+key]
	if !ok {
		k.keys["idempotency:"+key] = "pending"
		return true, 0, nil
	}
	id, _ := strconv.ParseInt(val, 10, 64)
	return false, id, nil
}

func (k *MemoryKeys) CompleteIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys["idempotency:"+key] = strconv.FormatInt(orderID, 10)
	return nil
}

func (k *MemoryKeys) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, "idempotency:"+key)
	return nil
}

func (k *MemoryKeys) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, held := k.keys["lock:"+lockKey]; held {
		return "", false, nil
	}
	k.next++
	token := fmt.Sprintf("token-%d", k.next)
	k.keys["lock:"+lockKey] = token
	return token, true, nil
}

func (k *MemoryKeys) ReleaseLock(ctx context.Context, lockKey, token string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.keys["lock:"+lockKey] == token {
		delete(k.keys, "lock:"+lockKey)
	}
	return nil
}

// Held reports whether a lock is currently held
func (k *MemoryKeys) Held(lockKey string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.keys["lock:"+lockKey]
	return ok
}
