package order_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/catalog"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/order"
	"github.com/vasiliy-maslov/shop-backend/order-service/internal/user"
)

var baseTime = time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

// memCatalog is an in-memory catalog.Reader.
type memCatalog struct {
	products map[int64]catalog.Product
	colors   map[int64]catalog.ColorVariant
	features map[int64]catalog.FeatureVariant
	err      error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		products: map[int64]catalog.Product{},
		colors:   map[int64]catalog.ColorVariant{},
		features: map[int64]catalog.FeatureVariant{},
	}
}

func (c *memCatalog) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id)
	}
	return &p, nil
}

func (c *memCatalog) GetColorVariant(_ context.Context, id int64) (*catalog.ColorVariant, error) {
	if c.err != nil {
		return nil, c.err
	}
	cv, ok := c.colors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", catalog.ErrColorVariantNotFound, id)
	}
	return &cv, nil
}

func (c *memCatalog) GetFeatureVariant(_ context.Context, id int64) (*catalog.FeatureVariant, error) {
	if c.err != nil {
		return nil, c.err
	}
	fv, ok := c.features[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", catalog.ErrFeatureVariantNotFound, id)
	}
	return &fv, nil
}

type featureRow struct {
	ID        int64
	ItemID    int64
	FeatureID int64
}

type memState struct {
	nextID    int64
	locations map[int64]order.Location
	orders    map[int64]order.Order
	items     map[int64]order.Item
	features  map[int64]featureRow
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:    s.nextID,
		locations: make(map[int64]order.Location, len(s.locations)),
		orders:    make(map[int64]order.Order, len(s.orders)),
		items:     make(map[int64]order.Item, len(s.items)),
		features:  make(map[int64]featureRow, len(s.features)),
	}
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.features {
		c.features[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// memStore is an in-memory order.Store. RunInTx works on a copy of the state
// and publishes it only when fn succeeds.
type memStore struct {
	mu      sync.Mutex
	state   *memState
	catalog *memCatalog
	// failOn makes the named repository method fail with the given error.
	failOn map[string]error
}

func newMemStore(cat *memCatalog) *memStore {
	return &memStore{
		state: &memState{
			locations: map[int64]order.Location{},
			orders:    map[int64]order.Order{},
			items:     map[int64]order.Item{},
			features:  map[int64]featureRow{},
		},
		catalog: cat,
		failOn:  map[string]error{},
	}
}

type memUnit struct {
	repo order.Repository
	cat  catalog.Reader
}

func (u *memUnit) Orders() order.Repository { return u.repo }
func (u *memUnit) Catalog() catalog.Reader  { return u.cat }

func (m *memStore) Orders() order.Repository { return &memRepo{store: m, state: m.state} }
func (m *memStore) Catalog() catalog.Reader  { return m.catalog }

func (m *memStore) RunInTx(_ context.Context, fn func(uow order.UnitOfWork) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memUnit{repo: &memRepo{store: m, state: work}, cat: m.catalog}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) orderCount() int    { return len(m.state.orders) }
func (m *memStore) itemCount() int     { return len(m.state.items) }
func (m *memStore) featureCount() int  { return len(m.state.features) }
func (m *memStore) locationCount() int { return len(m.state.locations) }

func (m *memStore) storedOrder(id int64) order.Order { return m.state.orders[id] }

func (m *memStore) itemSum(orderID int64) decimal.Decimal {
	total := decimal.Zero
	for _, it := range m.state.items {
		if it.OrderID == orderID {
			total = total.Add(it.Price)
		}
	}
	return total
}

type memRepo struct {
	store *memStore
	state *memState
}

func (r *memRepo) fail(method string) error {
	return r.store.failOn[method]
}

func (r *memRepo) CreateLocation(_ context.Context, loc *order.Location) error {
	if err := r.fail("CreateLocation"); err != nil {
		return err
	}
	loc.ID = r.state.id()
	loc.CreatedAt = baseTime
	r.state.locations[loc.ID] = *loc
	return nil
}

func (r *memRepo) UpdateLocation(_ context.Context, loc *order.Location) error {
	old, ok := r.state.locations[loc.ID]
	if !ok {
		return fmt.Errorf("location %d: %w", loc.ID, order.ErrIntegrity)
	}
	loc.CreatedAt = old.CreatedAt
	r.state.locations[loc.ID] = *loc
	return nil
}

func (r *memRepo) CreateOrder(_ context.Context, o *order.Order) error {
	if err := r.fail("CreateOrder"); err != nil {
		return err
	}
	o.ID = r.state.id()
	o.CreatedAt = baseTime.Add(time.Duration(o.ID) * time.Minute)
	stored := *o
	stored.Items = nil
	stored.Location = nil
	r.state.orders[o.ID] = stored
	return nil
}

func (r *memRepo) UpdateOrder(_ context.Context, o *order.Order) error {
	old, ok := r.state.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	stored := *o
	stored.CreatedAt = old.CreatedAt
	stored.Items = nil
	stored.Location = nil
	r.state.orders[o.ID] = stored
	return nil
}

func (r *memRepo) GetOrderByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return r.assemble(o), nil
}

func (r *memRepo) assemble(o order.Order) *order.Order {
	if o.LocationID != nil {
		if loc, ok := r.state.locations[*o.LocationID]; ok {
			o.Location = &loc
		}
	}

	o.Items = make([]order.Item, 0)
	for _, it := range r.state.items {
		if it.OrderID != o.ID {
			continue
		}
		it.Product = catalog.ProductSummary{ID: it.ProductID}
		if it.ColorID != nil {
			cv := r.store.catalog.colors[*it.ColorID]
			it.Color = &order.ItemColor{ID: cv.ID, Name: cv.ColorName, Names: cv.ColorNames}
		}
		it.Features = make([]order.ItemFeature, 0)
		for _, f := range r.sortedFeatures(it.ID) {
			fv := r.store.catalog.features[f.FeatureID]
			it.Features = append(it.Features, order.ItemFeature{
				ID:        f.ID,
				FeatureID: ptr(f.FeatureID),
				TypeName:  fv.TypeName,
				TypeNames: fv.TypeNames,
				Value:     fv.Value,
			})
		}
		o.Items = append(o.Items, it)
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })
	return &o
}

func (r *memRepo) sortedFeatures(itemID int64) []featureRow {
	var rows []featureRow
	for _, f := range r.state.features {
		if f.ItemID == itemID {
			rows = append(rows, f)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (r *memRepo) ListOrders(_ context.Context) ([]order.Order, error) {
	result := make([]order.Order, 0, len(r.state.orders))
	for _, o := range r.state.orders {
		result = append(result, *r.assemble(o))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	o, ok := r.state.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	r.state.orders[id] = o
	return nil
}

func (r *memRepo) CompareAndSetStatus(_ context.Context, id int64, expected, next order.Status) (bool, error) {
	o, ok := r.state.orders[id]
	if !ok || o.Status != expected {
		return false, nil
	}
	o.Status = next
	r.state.orders[id] = o
	return true, nil
}

func (r *memRepo) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := r.state.orders[id]; !ok {
		return order.ErrOrderNotFound
	}
	if err := r.DeleteItems(ctx, id); err != nil {
		return err
	}
	delete(r.state.orders, id)
	return nil
}

func (r *memRepo) CreateItem(_ context.Context, it *order.Item) error {
	if err := r.fail("CreateItem"); err != nil {
		return err
	}
	if _, ok := r.state.orders[it.OrderID]; !ok {
		return fmt.Errorf("item order %d: %w", it.OrderID, order.ErrIntegrity)
	}
	if it.Quantity < 1 || it.Quantity > 100 {
		return fmt.Errorf("item quantity %d: %w", it.Quantity, order.ErrIntegrity)
	}
	it.ID = r.state.id()
	stored := *it
	stored.Features = nil
	stored.Color = nil
	r.state.items[it.ID] = stored
	return nil
}

func (r *memRepo) CreateItemFeature(_ context.Context, itemID, featureID int64) error {
	if err := r.fail("CreateItemFeature"); err != nil {
		return err
	}
	id := r.state.id()
	r.state.features[id] = featureRow{ID: id, ItemID: itemID, FeatureID: featureID}
	return nil
}

func (r *memRepo) DeleteItems(_ context.Context, orderID int64) error {
	for id, it := range r.state.items {
		if it.OrderID != orderID {
			continue
		}
		for fid, f := range r.state.features {
			if f.ItemID == id {
				delete(r.state.features, fid)
			}
		}
		delete(r.state.items, id)
	}
	return nil
}

func (r *memRepo) ListItemPrices(_ context.Context, orderID int64) ([]decimal.Decimal, error) {
	var ids []int64
	for id, it := range r.state.items {
		if it.OrderID == orderID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	prices := make([]decimal.Decimal, 0, len(ids))
	for _, id := range ids {
		prices = append(prices, r.state.items[id].Price)
	}
	return prices, nil
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockHistoryReader struct {
	mock.Mock
}

func (m *MockHistoryReader) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.HistoryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.HistoryEntry), args.Error(1)
}

type summariesFunc func(ctx context.Context, ids []int64) (map[int64]catalog.ProductSummary, error)

func (f summariesFunc) GetSummaries(ctx context.Context, ids []int64) (map[int64]catalog.ProductSummary, error) {
	return f(ctx, ids)
}
