package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator converts classified raw records into typed entities and checks
// their declared constraints. A record with any violation is excluded from
// its bucket as a whole; there is no partial acceptance of valid fields.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Categorize runs classification and validation over one chunk, building
// the categorized batch and the chunk's error lines. Row numbers are
// 1-based and chunk-local.
func (v *Validator) Categorize(records []RawRecord) (*CategorizedBatch, []string) {
	batch := &CategorizedBatch{}
	var errs []string

	appendRowErrors := func(row int, msgs []string) {
		for _, msg := range msgs {
			errs = append(errs, fmt.Sprintf("Row %d: %s", row, msg))
		}
	}

	for i, record := range records {
		row := i + 1

		switch Classify(record) {
		case EntityCustomer:
			customer := mapCustomer(record)
			if msgs := v.check(customer); len(msgs) > 0 {
				appendRowErrors(row, msgs)
				continue
			}
			batch.Customers = append(batch.Customers, customer)

		case EntityProduct:
			product, err := mapProduct(record)
			if err != nil {
				appendRowErrors(row, []string{err.Error()})
				continue
			}
			if msgs := v.check(product); len(msgs) > 0 {
				appendRowErrors(row, msgs)
				continue
			}
			batch.Products = append(batch.Products, product)

		case EntityOrder:
			order, err := mapOrder(record)
			if err != nil {
				appendRowErrors(row, []string{err.Error()})
				continue
			}
			if msgs := v.check(order); len(msgs) > 0 {
				appendRowErrors(row, msgs)
				continue
			}
			batch.Orders = append(batch.Orders, order)

		case EntityOrderItem:
			item, err := mapOrderItem(record)
			if err != nil {
				appendRowErrors(row, []string{err.Error()})
				continue
			}
			if msgs := v.check(item); len(msgs) > 0 {
				appendRowErrors(row, msgs)
				continue
			}
			batch.OrderItems = append(batch.OrderItems, item)

		default:
			errs = append(errs, fmt.Sprintf("Row %d: Unable to identify table type", row))
		}
	}

	return batch, errs
}

// check validates an entity and returns one human-readable message per
// violated constraint.
func (v *Validator) check(entity any) []string {
	err := v.validate.Struct(entity)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, constraintMessage(fe))
	}
	return msgs
}

// constraintMessages maps "<Struct>.<Field>.<tag>" to the message reported
// to the uploader.
var constraintMessages = map[string]string{
	"Customer.CustomerID.required": "Customer ID is required",
	"Customer.CustomerID.min":      "Customer ID must be between 1 and 50 characters",
	"Customer.CustomerID.max":      "Customer ID must be between 1 and 50 characters",
	"Customer.Name.required":       "Name is required",
	"Customer.Name.min":            "Name must be between 1 and 255 characters",
	"Customer.Name.max":            "Name must be between 1 and 255 characters",
	"Customer.Email.required":      "Email is required",
	"Customer.Email.email":         "Email must be valid",
	"Customer.Phone.max":           "Phone must not exceed 50 characters",

	"Product.ProductID.required": "Product ID is required",
	"Product.ProductID.min":      "Product ID must be between 1 and 50 characters",
	"Product.ProductID.max":      "Product ID must be between 1 and 50 characters",
	"Product.Name.required":      "Product name is required",
	"Product.Name.min":           "Product name must be between 1 and 255 characters",
	"Product.Name.max":           "Product name must be between 1 and 255 characters",
	"Product.Price.required":     "Price is required",
	"Product.Price.gt":           "Price must be greater than 0",
	"Product.Category.max":       "Category must not exceed 100 characters",
	"Product.StockQuantity.gte":  "Stock quantity must be 0 or greater",

	"Order.OrderID.required":     "Order ID is required",
	"Order.OrderID.min":          "Order ID must be between 1 and 50 characters",
	"Order.OrderID.max":          "Order ID must be between 1 and 50 characters",
	"Order.CustomerID.required":  "Customer ID is required",
	"Order.CustomerID.min":       "Customer ID must be between 1 and 50 characters",
	"Order.CustomerID.max":       "Customer ID must be between 1 and 50 characters",
	"Order.OrderDate.required":   "Order date is required",
	"Order.Status.required":      "Status is required",
	"Order.Status.oneof":         "Status must be one of: pending, processing, shipped, delivered, cancelled",
	"Order.TotalAmount.required": "Total amount is required",
	"Order.TotalAmount.gte":      "Total amount must be 0 or greater",

	"OrderItem.OrderID.required":   "Order ID is required",
	"OrderItem.OrderID.min":        "Order ID must be between 1 and 50 characters",
	"OrderItem.OrderID.max":        "Order ID must be between 1 and 50 characters",
	"OrderItem.ProductID.required": "Product ID is required",
	"OrderItem.ProductID.min":      "Product ID must be between 1 and 50 characters",
	"OrderItem.ProductID.max":      "Product ID must be between 1 and 50 characters",
	"OrderItem.Quantity.required":  "Quantity is required",
	"OrderItem.Quantity.gt":        "Quantity must be greater than 0",
	"OrderItem.UnitPrice.required": "Unit price is required",
	"OrderItem.UnitPrice.gt":       "Unit price must be greater than 0",
	"OrderItem.Subtotal.required":  "Subtotal is required",
	"OrderItem.Subtotal.gte":       "Subtotal must be 0 or greater",
}

func constraintMessage(fe validator.FieldError) string {
	if msg, ok := constraintMessages[fe.StructNamespace()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed %s validation", fe.StructNamespace(), fe.Tag())
}

func mapCustomer(record RawRecord) Customer {
	return Customer{
		CustomerID: record.Get("customer_id"),
		Name:       record.Get("name"),
		Email:      record.Get("email"),
		Phone:      record.Get("phone"),
		Address:    record.Get("address"),
	}
}

func mapProduct(record RawRecord) (Product, error) {
	price, err := parseFloat(record.Get("price"), "price")
	if err != nil {
		return Product{}, err
	}
	stock, err := parseIntDefault(record.Get("stock_quantity"), 0)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ProductID:     record.Get("product_id"),
		Name:          record.Get("name"),
		Description:   record.Get("description"),
		Price:         price,
		Category:      record.Get("category"),
		StockQuantity: stock,
	}, nil
}

func mapOrder(record RawRecord) (Order, error) {
	orderDate, err := parseDateTime(record.Get("order_date"))
	if err != nil {
		return Order{}, err
	}
	total, err := parseFloat(record.Get("total_amount"), "total_amount")
	if err != nil {
		return Order{}, err
	}
	return Order{
		OrderID:     record.Get("order_id"),
		CustomerID:  record.Get("customer_id"),
		OrderDate:   orderDate,
		Status:      strings.ToLower(record.Get("status")),
		TotalAmount: total,
	}, nil
}

func mapOrderItem(record RawRecord) (OrderItem, error) {
	quantity, err := parseInt(record.Get("quantity"))
	if err != nil {
		return OrderItem{}, err
	}
	unitPrice, err := parseFloat(record.Get("unit_price"), "unit_price")
	if err != nil {
		return OrderItem{}, err
	}
	subtotal, err := parseFloat(record.Get("subtotal"), "subtotal")
	if err != nil {
		return OrderItem{}, err
	}
	return OrderItem{
		OrderID:   record.Get("order_id"),
		ProductID: record.Get("product_id"),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  subtotal,
	}, nil
}

// dateLayouts are tried in order; the first match wins.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseDateTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("Invalid date format: %s", value)
}

func parseFloat(value, field string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("Invalid %s: %s", field, value)
	}
	return &f, nil
}

func parseInt(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("Invalid integer value: %s", value)
	}
	return &i, nil
}

func parseIntDefault(value string, fallback int) (int, error) {
	i, err := parseInt(value)
	if err != nil {
		return 0, err
	}
	if i == nil {
		return fallback, nil
	}
	return *i, nil
}
