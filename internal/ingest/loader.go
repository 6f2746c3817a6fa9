package ingest

import (
	"context"
	"fmt"
)

// BatchLoader writes a categorized batch in dependency order: customers,
// products, orders, order items. Entities whose natural key already exists
// in storage are silently skipped; order items carry no natural key and are
// always inserted. The first storage failure aborts the batch.
type BatchLoader struct {
	store Store
}

func NewBatchLoader(store Store) *BatchLoader {
	return &BatchLoader{store: store}
}

// Load inserts the batch and returns per-entity created counts. The counts
// reflect only entities this call inserted; duplicate-skipped records are
// excluded. On error the returned counts cover the entity groups that
// completed before the failure.
func (bl *BatchLoader) Load(ctx context.Context, batch *CategorizedBatch) (LoadCounts, error) {
	var counts LoadCounts

	customers, err := bl.newCustomers(ctx, batch.Customers)
	if err != nil {
		return counts, err
	}
	if len(customers) > 0 {
		n, err := bl.store.InsertCustomers(ctx, customers)
		if err != nil {
			return counts, &LoadError{Entity: EntityCustomer, Err: err}
		}
		counts.Customers = n
	}

	products, err := bl.newProducts(ctx, batch.Products)
	if err != nil {
		return counts, err
	}
	if len(products) > 0 {
		n, err := bl.store.InsertProducts(ctx, products)
		if err != nil {
			return counts, &LoadError{Entity: EntityProduct, Err: err}
		}
		counts.Products = n
	}

	orders, err := bl.newOrders(ctx, batch.Orders)
	if err != nil {
		return counts, err
	}
	if len(orders) > 0 {
		n, err := bl.store.InsertOrders(ctx, orders)
		if err != nil {
			return counts, &LoadError{Entity: EntityOrder, Err: err}
		}
		counts.Orders = n
	}

	if len(batch.OrderItems) > 0 {
		n, err := bl.store.InsertOrderItems(ctx, batch.OrderItems)
		if err != nil {
			return counts, &LoadError{Entity: EntityOrderItem, Err: err}
		}
		counts.OrderItems = n
	}

	return counts, nil
}

// newCustomers drops customers whose ID is already persisted. Within the
// batch the first occurrence of an ID wins.
func (bl *BatchLoader) newCustomers(ctx context.Context, customers []Customer) ([]Customer, error) {
	if len(customers) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.CustomerID)
	}
	existing, err := bl.store.ExistingCustomerIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing customers: %w", err)
	}

	fresh := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if _, ok := existing[c.CustomerID]; ok {
			continue
		}
		existing[c.CustomerID] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh, nil
}

func (bl *BatchLoader) newProducts(ctx context.Context, products []Product) ([]Product, error) {
	if len(products) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ProductID)
	}
	existing, err := bl.store.ExistingProductIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing products: %w", err)
	}

	fresh := make([]Product, 0, len(products))
	for _, p := range products {
		if _, ok := existing[p.ProductID]; ok {
			continue
		}
		existing[p.ProductID] = struct{}{}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

func (bl *BatchLoader) newOrders(ctx context.Context, orders []Order) ([]Order, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	existing, err := bl.store.ExistingOrderIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing orders: %w", err)
	}

	fresh := make([]Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := existing[o.OrderID]; ok {
			continue
		}
		existing[o.OrderID] = struct{}{}
		fresh = append(fresh, o)
	}
	return fresh, nil
}
