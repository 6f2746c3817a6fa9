package ingest

import (
	"context"
	"errors"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory Store for pipeline, loader, and verifier tests.
// Inserts overwrite by natural key without error, mirroring the real store's
// behavior after the loader's dedup filter.
type fakeStore struct {
	customers  map[string]Customer
	products   map[string]Product
	orders     map[string]Order
	orderItems []OrderItem

	failReads   bool
	failInserts map[EntityType]bool
	insertLog   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers:   map[string]Customer{},
		products:    map[string]Product{},
		orders:      map[string]Order{},
		failInserts: map[EntityType]bool{},
	}
}

func (f *fakeStore) CustomerIDs(context.Context) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	ids := make(map[string]struct{}, len(f.customers))
	for id := range f.customers {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeStore) ProductIDs(context.Context) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	ids := make(map[string]struct{}, len(f.products))
	for id := range f.products {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeStore) OrderIDs(context.Context) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	ids := make(map[string]struct{}, len(f.orders))
	for id := range f.orders {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (f *fakeStore) ExistingCustomerIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	found := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := f.customers[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeStore) ExistingProductIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	found := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := f.products[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeStore) ExistingOrderIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if f.failReads {
		return nil, errStoreDown
	}
	found := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := f.orders[id]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeStore) InsertCustomers(_ context.Context, customers []Customer) (int64, error) {
	if f.failInserts[EntityCustomer] {
		return 0, errStoreDown
	}
	f.insertLog = append(f.insertLog, "customers")
	for _, c := range customers {
		f.customers[c.CustomerID] = c
	}
	return int64(len(customers)), nil
}

func (f *fakeStore) InsertProducts(_ context.Context, products []Product) (int64, error) {
	if f.failInserts[EntityProduct] {
		return 0, errStoreDown
	}
	f.insertLog = append(f.insertLog, "products")
	for _, p := range products {
		f.products[p.ProductID] = p
	}
	return int64(len(products)), nil
}

func (f *fakeStore) InsertOrders(_ context.Context, orders []Order) (int64, error) {
	if f.failInserts[EntityOrder] {
		return 0, errStoreDown
	}
	f.insertLog = append(f.insertLog, "orders")
	for _, o := range orders {
		f.orders[o.OrderID] = o
	}
	return int64(len(orders)), nil
}

func (f *fakeStore) InsertOrderItems(_ context.Context, items []OrderItem) (int64, error) {
	if f.failInserts[EntityOrderItem] {
		return 0, errStoreDown
	}
	f.insertLog = append(f.insertLog, "order_items")
	f.orderItems = append(f.orderItems, items...)
	return int64(len(items)), nil
}
