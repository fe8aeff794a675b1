// Package testutil provides in-memory stand-ins for the store, the gateway
// and the event and Redis dependencies, for service and handler tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"vansales-service/internal/models"
	"vansales-service/internal/store"
)

// MemoryStore is an in-memory implementation of the store operations used by
// the services. It enforces the same status transitions as the SQL store.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	users     map[int64]*models.User
	products  map[int64]*models.Product
	orders    map[int64]*models.Order
	settings  map[string]*models.Setting
	activity  []models.OrderActivity
	processed map[string]bool

	// FailCreateOrder makes CreateOrder return this error
	FailCreateOrder error
	// FailMarkSynced makes MarkOrderSynced return this error
	FailMarkSynced error
	// BeforeCreateProduct runs at the start of CreateProduct, outside the lock
	BeforeCreateProduct func()
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]*models.User),
		products:  make(map[int64]*models.Product),
		orders:    make(map[int64]*models.Order),
		settings:  make(map[string]*models.Setting),
		processed: make(map[string]bool),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// ---- users ----

func (m *MemoryStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: users_username_key", store.ErrDuplicate)
		}
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, u := range m.users {
		if u.Role == role {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *MemoryStore) UpdateUserStatus(ctx context.Context, id int64, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	u.IsEnabled = enabled
	return nil
}

func (m *MemoryStore) UpdateUserSearchPermission(ctx context.Context, id int64, allow bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	u.AllowBigCommerceSearch = allow
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	for _, o := range m.orders {
		if o.CreatedByUserID == id {
			return fmt.Errorf("%w: orders_created_by_user_id_fkey", store.ErrReferenced)
		}
	}
	delete(m.users, id)
	return nil
}

// ---- products ----

func (m *MemoryStore) sortedProducts(filter func(*models.Product) bool) []models.Product {
	products := []models.Product{}
	for _, p := range m.products {
		if filter(p) {
			products = append(products, *p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].IsPinned != products[j].IsPinned {
			return products[i].IsPinned
		}
		return products[i].Name < products[j].Name
	})
	return products
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedProducts(func(*models.Product) bool { return true }), nil
}

func (m *MemoryStore) ListPinnedProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedProducts(func(p *models.Product) bool { return p.IsPinned }), nil
}

func (m *MemoryStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetProductByBigCommerceID(ctx context.Context, bcID int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.BigCommerceID == bcID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("bigcommerce product %d: %w", bcID, store.ErrNotFound)
}

func (m *MemoryStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if m.BeforeCreateProduct != nil {
		m.BeforeCreateProduct()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.BigCommerceID == p.BigCommerceID {
			return fmt.Errorf("%w: products_bigcommerce_id_key", store.ErrDuplicate)
		}
	}
	p.ID = m.id()
	p.UpdatedAt = time.Now()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *MemoryStore) UpdateProductPin(ctx context.Context, id int64, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	p.IsPinned = pinned
	return nil
}

func (m *MemoryStore) UpdateProductCatalog(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	pinned := existing.IsPinned
	cp := *p
	cp.IsPinned = pinned
	cp.UpdatedAt = time.Now()
	m.products[p.ID] = &cp
	return nil
}

// ---- orders ----

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append(models.OrderItems(nil), o.Items...)
	if o.BillingAddress != nil {
		addr := *o.BillingAddress
		cp.BillingAddress = &addr
	}
	return &cp
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateOrder != nil {
		return m.FailCreateOrder
	}
	if _, ok := m.users[order.CreatedByUserID]; !ok {
		return fmt.Errorf("%w: orders_created_by_user_id_fkey", store.ErrReferenced)
	}
	order.ID = m.id()
	order.Date = time.Now()
	order.UpdatedAt = order.Date
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MemoryStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (m *MemoryStore) listOrders(filter func(*models.Order) bool) []models.Order {
	orders := []models.Order{}
	for _, o := range m.orders {
		if filter(o) {
			orders = append(orders, *cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrders(func(o *models.Order) bool { return o.CreatedByUserID == userID }), nil
}

func (m *MemoryStore) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrders(func(o *models.Order) bool { return o.Status == status }), nil
}

func (m *MemoryStore) ListDraftsByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrders(func(o *models.Order) bool {
		return o.Status == models.OrderStatusDraft && o.CreatedByUserID == userID
	}), nil
}

func (m *MemoryStore) PrepareOrderForSync(ctx context.Context, id int64, customerID *int64, address *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	retryable := ok && (o.Status == models.OrderStatusDraft ||
		(o.Status == models.OrderStatusPendingSync && o.SyncError != nil))
	if !retryable {
		return fmt.Errorf("order %d: %w", id, store.ErrStatusTransition)
	}
	o.Status = models.OrderStatusPendingSync
	o.SyncError = nil
	if customerID != nil {
		o.BigCommerceCustomerID = customerID
	}
	if address != nil {
		addr := *address
		o.BillingAddress = &addr
	} else {
		o.BillingAddress = nil
	}
	return nil
}

func (m *MemoryStore) MarkOrderSynced(ctx context.Context, id, bigCommerceOrderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailMarkSynced != nil {
		return m.FailMarkSynced
	}
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderStatusPendingSync {
		return fmt.Errorf("order %d: %w", id, store.ErrStatusTransition)
	}
	o.Status = models.OrderStatusSynced
	o.BigCommerceOrderID = &bigCommerceOrderID
	o.SyncError = nil
	return nil
}

func (m *MemoryStore) MarkOrderSyncFailed(ctx context.Context, id int64, syncErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != models.OrderStatusPendingSync {
		return fmt.Errorf("order %d: %w", id, store.ErrStatusTransition)
	}
	o.SyncError = &syncErr
	return nil
}

func (m *MemoryStore) MarkOrderMirrored(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		o.GoogleSheetsLogged = true
	}
	return nil
}

// ---- settings ----

func (m *MemoryStore) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[key]
	if !ok {
		return nil, fmt.Errorf("setting %q: %w", key, store.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) UpsertSetting(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[key]
	if !ok {
		s = &models.Setting{ID: m.id(), Key: key}
		m.settings[key] = s
	}
	s.Value = append(json.RawMessage(nil), value...)
	s.UpdatedAt = time.Now()
	cp := *s
	return &cp, nil
}

// ---- activity ----

func (m *MemoryStore) RecordOrderActivity(ctx context.Context, a *models.OrderActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.activity {
		if existing.EventID == a.EventID {
			return nil
		}
	}
	a.ID = m.id()
	m.activity = append(m.activity, *a)
	return nil
}

func (m *MemoryStore) ListOrderActivity(ctx context.Context, orderID int64) ([]models.OrderActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.OrderActivity{}
	for _, a := range m.activity {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *MemoryStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[eventID] = true
	return nil
}

// ---- seeding helpers ----

// AddUser stores a user as is and returns it with its id set
func (m *MemoryStore) AddUser(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = &u
	cp := u
	return &cp
}

// AddProduct stores a product as is and returns it with its id set
func (m *MemoryStore) AddProduct(p models.Product) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	m.products[p.ID] = &p
	cp := p
	return &cp
}

// AddOrder stores an order as is and returns it with its id set
func (m *MemoryStore) AddOrder(o models.Order) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
	m.orders[o.ID] = cloneOrder(&o)
	return cloneOrder(&o)
}

// OrderCount returns the number of stored orders
func (m *MemoryStore) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}
