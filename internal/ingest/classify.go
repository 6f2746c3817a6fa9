package ingest

// Classification is a priority-ordered rule list rather than nested
// conditionals: the entity field sets overlap, so evaluation order is part
// of the contract and is testable as data.
//
// Order items are checked first because they share product_id with
// products and order_id with orders. Customers and products carry explicit
// exclusions for the same reason.
type classificationRule struct {
	entity  EntityType
	matches func(RawRecord) bool
}

var classificationRules = []classificationRule{
	{EntityOrderItem, func(r RawRecord) bool {
		return r.Has("product_id") && r.Has("quantity") && r.Has("unit_price") && r.Has("subtotal")
	}},
	{EntityCustomer, func(r RawRecord) bool {
		return r.Has("customer_id") && r.Has("email") && !r.Has("order_id") && !r.Has("product_id")
	}},
	{EntityProduct, func(r RawRecord) bool {
		return r.Has("product_id") && r.Has("price") && !r.Has("order_id")
	}},
	{EntityOrder, func(r RawRecord) bool {
		return r.Has("order_id") && r.Has("customer_id") && r.Has("order_date")
	}},
}

// Classify assigns a record to an entity type by the first matching rule,
// or EntityUnknown if none match.
func Classify(record RawRecord) EntityType {
	for _, rule := range classificationRules {
		if rule.matches(record) {
			return rule.entity
		}
	}
	return EntityUnknown
}
