package ingest

import (
	"context"
	"errors"
	"testing"
)

func sampleBatch(t *testing.T) *CategorizedBatch {
	t.Helper()
	return &CategorizedBatch{
		Customers: []Customer{{CustomerID: "C1", Name: "Ann", Email: "ann@x.com"}},
		Products:  []Product{{ProductID: "P1", Name: "Widget", Price: floatPtr(9.99)}},
		Orders: []Order{{
			OrderID: "O1", CustomerID: "C1",
			OrderDate: mustTime(t, "2024-01-02 03:04:05"),
			Status:    "pending", TotalAmount: floatPtr(19.98),
		}},
		OrderItems: []OrderItem{{
			OrderID: "O1", ProductID: "P1",
			Quantity: intPtr(2), UnitPrice: floatPtr(9.99), Subtotal: floatPtr(19.98),
		}},
	}
}

func TestLoadInsertsInDependencyOrder(t *testing.T) {
	store := newFakeStore()
	loader := NewBatchLoader(store)

	counts, err := loader.Load(context.Background(), sampleBatch(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Total() != 4 {
		t.Errorf("total = %d, want 4", counts.Total())
	}

	want := []string{"customers", "products", "orders", "order_items"}
	if len(store.insertLog) != len(want) {
		t.Fatalf("insert log = %v, want %v", store.insertLog, want)
	}
	for i := range want {
		if store.insertLog[i] != want[i] {
			t.Errorf("insert %d = %q, want %q", i, store.insertLog[i], want[i])
		}
	}
}

func TestLoadSkipsPersistedNaturalKeys(t *testing.T) {
	store := newFakeStore()
	store.customers["C1"] = Customer{CustomerID: "C1"}
	loader := NewBatchLoader(store)

	counts, err := loader.Load(context.Background(), sampleBatch(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Customers != 0 {
		t.Errorf("customers created = %d, want 0 (already persisted)", counts.Customers)
	}
	if counts.Products != 1 || counts.Orders != 1 || counts.OrderItems != 1 {
		t.Errorf("counts = %+v, want products/orders/items = 1", counts)
	}
}

func TestLoadDeduplicatesWithinBatch(t *testing.T) {
	store := newFakeStore()
	loader := NewBatchLoader(store)

	batch := &CategorizedBatch{
		Customers: []Customer{
			{CustomerID: "C1", Name: "Ann", Email: "ann@x.com"},
			{CustomerID: "C1", Name: "Ann again", Email: "ann2@x.com"},
		},
	}
	counts, err := loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Customers != 1 {
		t.Errorf("customers created = %d, want 1 (first occurrence wins)", counts.Customers)
	}
	if got := store.customers["C1"].Name; got != "Ann" {
		t.Errorf("persisted name = %q, want %q", got, "Ann")
	}
}

func TestLoadNeverDeduplicatesOrderItems(t *testing.T) {
	store := newFakeStore()
	loader := NewBatchLoader(store)

	item := OrderItem{OrderID: "O1", ProductID: "P1", Quantity: intPtr(1), UnitPrice: floatPtr(1), Subtotal: floatPtr(1)}
	batch := &CategorizedBatch{OrderItems: []OrderItem{item, item, item}}

	counts, err := loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.OrderItems != 3 {
		t.Errorf("order items created = %d, want 3", counts.OrderItems)
	}
}

func TestLoadSkipsEmptyGroups(t *testing.T) {
	store := newFakeStore()
	loader := NewBatchLoader(store)

	counts, err := loader.Load(context.Background(), &CategorizedBatch{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Total() != 0 {
		t.Errorf("total = %d, want 0", counts.Total())
	}
	if len(store.insertLog) != 0 {
		t.Errorf("insert log = %v, want no insert calls", store.insertLog)
	}
}

func TestLoadInsertFailureWrapsEntity(t *testing.T) {
	store := newFakeStore()
	store.failInserts[EntityOrder] = true
	loader := NewBatchLoader(store)

	counts, err := loader.Load(context.Background(), sampleBatch(t))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("error = %v, want *LoadError", err)
	}
	if loadErr.Entity != EntityOrder {
		t.Errorf("entity = %q, want %q", loadErr.Entity, EntityOrder)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("cause not preserved: %v", err)
	}
	// Earlier groups completed before the failure.
	if counts.Customers != 1 || counts.Products != 1 {
		t.Errorf("counts = %+v, want customers=1 products=1", counts)
	}
	if counts.Orders != 0 || counts.OrderItems != 0 {
		t.Errorf("counts = %+v, want orders=0 items=0", counts)
	}
}
