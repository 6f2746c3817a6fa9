package ingest

import (
	"context"
	"fmt"
)

// RelationshipVerifier checks foreign-key references in a categorized batch
// before it reaches storage. A reference is satisfied by either a persisted
// row or a new entity in the same batch, so a chunk can introduce a
// customer and that customer's order together.
//
// Verification is advisory: a failed reference is reported but does not
// remove the record from the batch. References across earlier chunks are
// covered because the persisted sets are re-read per chunk.
type RelationshipVerifier struct {
	store Store
}

func NewRelationshipVerifier(store Store) *RelationshipVerifier {
	return &RelationshipVerifier{store: store}
}

// Verify returns one message per unsatisfied reference. A store read
// failure is fatal for the upload and is returned as an error.
func (rv *RelationshipVerifier) Verify(ctx context.Context, batch *CategorizedBatch) ([]string, error) {
	customerIDs, err := rv.effectiveCustomerIDs(ctx, batch)
	if err != nil {
		return nil, err
	}
	productIDs, err := rv.effectiveProductIDs(ctx, batch)
	if err != nil {
		return nil, err
	}
	orderIDs, err := rv.effectiveOrderIDs(ctx, batch)
	if err != nil {
		return nil, err
	}

	var msgs []string
	for _, order := range batch.Orders {
		if _, ok := customerIDs[order.CustomerID]; !ok {
			msgs = append(msgs, fmt.Sprintf("Order %s references non-existent customer: %s", order.OrderID, order.CustomerID))
		}
	}
	for _, item := range batch.OrderItems {
		if _, ok := orderIDs[item.OrderID]; !ok {
			msgs = append(msgs, fmt.Sprintf("OrderItem references non-existent order: %s", item.OrderID))
		}
		if _, ok := productIDs[item.ProductID]; !ok {
			msgs = append(msgs, fmt.Sprintf("OrderItem references non-existent product: %s", item.ProductID))
		}
	}
	return msgs, nil
}

func (rv *RelationshipVerifier) effectiveCustomerIDs(ctx context.Context, batch *CategorizedBatch) (map[string]struct{}, error) {
	ids, err := rv.store.CustomerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load customer ids: %w", err)
	}
	for _, customer := range batch.Customers {
		ids[customer.CustomerID] = struct{}{}
	}
	return ids, nil
}

func (rv *RelationshipVerifier) effectiveProductIDs(ctx context.Context, batch *CategorizedBatch) (map[string]struct{}, error) {
	ids, err := rv.store.ProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load product ids: %w", err)
	}
	for _, product := range batch.Products {
		ids[product.ProductID] = struct{}{}
	}
	return ids, nil
}

func (rv *RelationshipVerifier) effectiveOrderIDs(ctx context.Context, batch *CategorizedBatch) (map[string]struct{}, error) {
	ids, err := rv.store.OrderIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order ids: %w", err)
	}
	for _, order := range batch.Orders {
		ids[order.OrderID] = struct{}{}
	}
	return ids, nil
}
