// Package storage provides the PostgreSQL-backed store used by the
// ingestion pipeline. Bulk inserts go through the COPY protocol; natural-key
// uniqueness and foreign keys are enforced by the schema (see sql/schema.sql).
package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parserpotato/ingest/internal/ingest"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) CustomerIDs(ctx context.Context) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT customer_id FROM customers")
}

func (p *Postgres) ProductIDs(ctx context.Context) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT product_id FROM products")
}

func (p *Postgres) OrderIDs(ctx context.Context) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT order_id FROM orders")
}

func (p *Postgres) ExistingCustomerIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT customer_id FROM customers WHERE customer_id = ANY($1)", ids)
}

func (p *Postgres) ExistingProductIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT product_id FROM products WHERE product_id = ANY($1)", ids)
}

func (p *Postgres) ExistingOrderIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return p.queryIDSet(ctx, "SELECT order_id FROM orders WHERE order_id = ANY($1)", ids)
}

func (p *Postgres) queryIDSet(ctx context.Context, query string, args ...any) (map[string]struct{}, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (p *Postgres) InsertCustomers(ctx context.Context, customers []ingest.Customer) (int64, error) {
	return p.pool.CopyFrom(ctx,
		pgx.Identifier{"customers"},
		[]string{"customer_id", "name", "email", "phone", "address"},
		pgx.CopyFromSlice(len(customers), func(i int) ([]any, error) {
			c := customers[i]
			return []any{c.CustomerID, c.Name, c.Email, nullText(c.Phone), nullText(c.Address)}, nil
		}))
}

func (p *Postgres) InsertProducts(ctx context.Context, products []ingest.Product) (int64, error) {
	return p.pool.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"product_id", "name", "description", "price", "category", "stock_quantity"},
		pgx.CopyFromSlice(len(products), func(i int) ([]any, error) {
			pr := products[i]
			return []any{pr.ProductID, pr.Name, nullText(pr.Description), *pr.Price, nullText(pr.Category), pr.StockQuantity}, nil
		}))
}

func (p *Postgres) InsertOrders(ctx context.Context, orders []ingest.Order) (int64, error) {
	return p.pool.CopyFrom(ctx,
		pgx.Identifier{"orders"},
		[]string{"order_id", "customer_id", "order_date", "status", "total_amount"},
		pgx.CopyFromSlice(len(orders), func(i int) ([]any, error) {
			o := orders[i]
			return []any{o.OrderID, o.CustomerID, *o.OrderDate, o.Status, *o.TotalAmount}, nil
		}))
}

func (p *Postgres) InsertOrderItems(ctx context.Context, items []ingest.OrderItem) (int64, error) {
	return p.pool.CopyFrom(ctx,
		pgx.Identifier{"order_items"},
		[]string{"order_id", "product_id", "quantity", "unit_price", "subtotal"},
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			return []any{it.OrderID, it.ProductID, *it.Quantity, *it.UnitPrice, *it.Subtotal}, nil
		}))
}

// nullText maps an empty optional field to SQL NULL.
func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
