// Package ingest implements the file ingestion pipeline: format detection,
// streaming record readers, chunking, per-record classification and
// validation, in-chunk relationship verification, and dependency-ordered
// batch loading into the four entity tables.
package ingest

import (
	"context"
	"time"
)

// EntityType identifies which table a record belongs to.
type EntityType string

const (
	EntityCustomer  EntityType = "customer"
	EntityProduct   EntityType = "product"
	EntityOrder     EntityType = "order"
	EntityOrderItem EntityType = "order_item"
	EntityUnknown   EntityType = "unknown"
)

// RawRecord is one parsed line/object as a field-name -> value map.
//
// Key presence means the field appeared in the source; an empty string value
// means null (empty source values normalize to "" at parse time). Presence
// with a null value still counts for classification, so a customer row with
// a blank email column classifies as a customer and then fails validation.
type RawRecord map[string]string

// Has reports whether the field appeared in the source record.
func (r RawRecord) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Get returns the field value, or "" if the field is absent or null.
func (r RawRecord) Get(field string) string {
	return r[field]
}

// Customer is a validated customer record keyed by its natural CustomerID.
type Customer struct {
	CustomerID string `validate:"required,min=1,max=50"`
	Name       string `validate:"required,min=1,max=255"`
	Email      string `validate:"required,email"`
	Phone      string `validate:"omitempty,max=50"`
	Address    string
}

// Product is a validated product record keyed by its natural ProductID.
// Price is a pointer so a missing value is distinguishable from zero.
type Product struct {
	ProductID     string `validate:"required,min=1,max=50"`
	Name          string `validate:"required,min=1,max=255"`
	Description   string
	Price         *float64 `validate:"required,gt=0"`
	Category      string   `validate:"omitempty,max=100"`
	StockQuantity int      `validate:"gte=0"`
}

// Order is a validated order record keyed by its natural OrderID.
// Status is lower-cased before validation.
type Order struct {
	OrderID     string     `validate:"required,min=1,max=50"`
	CustomerID  string     `validate:"required,min=1,max=50"`
	OrderDate   *time.Time `validate:"required"`
	Status      string     `validate:"required,oneof=pending processing shipped delivered cancelled"`
	TotalAmount *float64   `validate:"required,gte=0"`
}

// OrderItem is a validated order line. It has no natural uniqueness key, so
// duplicate items are never deduplicated on load.
type OrderItem struct {
	OrderID   string   `validate:"required,min=1,max=50"`
	ProductID string   `validate:"required,min=1,max=50"`
	Quantity  *int     `validate:"required,gt=0"`
	UnitPrice *float64 `validate:"required,gt=0"`
	Subtotal  *float64 `validate:"required,gte=0"`
}

// CategorizedBatch holds one chunk's validated entities in insertion order:
// customers, then products, then orders, then order items.
type CategorizedBatch struct {
	Customers  []Customer
	Products   []Product
	Orders     []Order
	OrderItems []OrderItem
}

// Size returns the number of validated records across all four buckets.
func (b *CategorizedBatch) Size() int {
	return len(b.Customers) + len(b.Products) + len(b.Orders) + len(b.OrderItems)
}

// LoadCounts reports how many rows each loader step inserted.
type LoadCounts struct {
	Customers  int64
	Products   int64
	Orders     int64
	OrderItems int64
}

// Total returns the sum of the four per-entity counts.
func (c LoadCounts) Total() int64 {
	return c.Customers + c.Products + c.Orders + c.OrderItems
}

// Report is the aggregate outcome of one upload. Field names match the
// public response contract exactly.
type Report struct {
	Message           string   `json:"message"`
	RecordsProcessed  int      `json:"recordsProcessed"`
	SuccessRowsCount  int      `json:"successRowsCount"`
	SkippedRowsCount  int      `json:"skippedRowsCount"`
	CustomersCreated  int      `json:"customersCreated"`
	ProductsCreated   int      `json:"productsCreated"`
	OrdersCreated     int      `json:"ordersCreated"`
	OrderItemsCreated int      `json:"orderItemsCreated"`
	Errors            []string `json:"errors"`
}

// MaxReportedErrors caps the error list in the Report. Internal accounting
// uses the full count; only the user-visible list is truncated.
const MaxReportedErrors = 100

// DefaultChunkSize is the number of records per processing chunk.
const DefaultChunkSize = 1000

// Store is the storage collaborator consumed by the relationship verifier
// and the batch loader. Implementations must enforce natural-key uniqueness
// themselves; the pipeline provides no cross-request mutual exclusion.
type Store interface {
	// Full natural-key sets, re-queried once per chunk by the verifier.
	CustomerIDs(ctx context.Context) (map[string]struct{}, error)
	ProductIDs(ctx context.Context) (map[string]struct{}, error)
	OrderIDs(ctx context.Context) (map[string]struct{}, error)

	// Subset existence checks over a chunk's candidate keys, used by the
	// loader to skip already-persisted records.
	ExistingCustomerIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	ExistingProductIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	ExistingOrderIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// Bulk inserts, one logical operation each. A returned error fails the
	// whole chunk.
	InsertCustomers(ctx context.Context, customers []Customer) (int64, error)
	InsertProducts(ctx context.Context, products []Product) (int64, error)
	InsertOrders(ctx context.Context, orders []Order) (int64, error)
	InsertOrderItems(ctx context.Context, items []OrderItem) (int64, error)
}
