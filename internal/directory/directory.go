// Package directory holds the business records the agent can look up or
// change mid-call: customers, their orders, products, and service bookings.
// The in-memory repository ships with demo data so the agent works out of
// the box without a database.
package directory

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
)

// Kind names a record collection.
type Kind string

const (
	KindCustomers Kind = "customers"
	KindOrders    Kind = "orders"
	KindProducts  Kind = "products"
	KindBookings  Kind = "bookings"
)

// Kinds lists every collection a repository holds, for tool schemas and
// error messages.
var Kinds = []Kind{KindCustomers, KindOrders, KindProducts, KindBookings}

var (
	ErrUnknownKind  = errors.New("directory: unknown record kind")
	ErrNotFound     = errors.New("directory: record not found")
	ErrMissingID    = errors.New("directory: record ID required")
	ErrUnknownOp    = errors.New("directory: unknown operation")
	ErrDuplicateID  = errors.New("directory: record ID already exists")
	ErrInvalidField = errors.New("directory: invalid field")
)

// Customer is a contact record.
type Customer struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email" yaml:"email"`
	Phone  string `json:"phone" yaml:"phone"`
	Status string `json:"status" yaml:"status"`
}

// Order is a purchase record tied to a customer.
type Order struct {
	ID         int     `json:"id" yaml:"id"`
	CustomerID int     `json:"customer_id" yaml:"customer_id"`
	Date       string  `json:"date" yaml:"date"`
	Total      float64 `json:"total" yaml:"total"`
	Status     string  `json:"status" yaml:"status"`
}

// Product is an inventory record.
type Product struct {
	ID    int     `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
	Stock int     `json:"stock" yaml:"stock"`
}

// Booking is a scheduled service visit, kept separate from the agent's own
// calendar because bookings come from the business's booking system.
type Booking struct {
	ID           int    `json:"id" yaml:"id"`
	CustomerName string `json:"customer_name" yaml:"customer_name"`
	Date         string `json:"date" yaml:"date"`
	Time         string `json:"time" yaml:"time"`
	Service      string `json:"service" yaml:"service"`
}

// nameSimilarityFloor is the minimum Jaro-Winkler score for a fuzzy
// customer name match. Spoken names arrive mangled by transcription, so
// exact matching alone misses too much.
const nameSimilarityFloor = 0.84

// Repository is a concurrency-safe store of business records. The zero
// value is unusable; use New or NewWithDemoData.
type Repository struct {
	mu        sync.RWMutex
	customers []Customer
	orders    []Order
	products  []Product
	bookings  []Booking
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{}
}

// NewWithDemoData creates a repository seeded with sample records.
func NewWithDemoData() *Repository {
	r := New()
	r.customers = []Customer{
		{ID: 1, Name: "John Doe", Email: "john@example.com", Phone: "+1234567890", Status: "active"},
		{ID: 2, Name: "Jane Smith", Email: "jane@example.com", Phone: "+0987654321", Status: "active"},
		{ID: 3, Name: "Bob Johnson", Email: "bob@example.com", Phone: "+1122334455", Status: "inactive"},
	}
	r.orders = []Order{
		{ID: 101, CustomerID: 1, Date: "2024-01-15", Total: 150.00, Status: "delivered"},
		{ID: 102, CustomerID: 2, Date: "2024-01-16", Total: 75.50, Status: "processing"},
		{ID: 103, CustomerID: 1, Date: "2024-01-17", Total: 200.00, Status: "shipped"},
	}
	r.products = []Product{
		{ID: 1001, Name: "Widget A", Price: 25.00, Stock: 100},
		{ID: 1002, Name: "Gadget B", Price: 50.00, Stock: 50},
		{ID: 1003, Name: "Tool C", Price: 75.00, Stock: 25},
	}
	r.bookings = []Booking{
		{ID: 1, CustomerName: "John Doe", Date: "2024-01-20", Time: "14:00", Service: "consultation"},
		{ID: 2, CustomerName: "Jane Smith", Date: "2024-01-21", Time: "10:00", Service: "support"},
	}
	return r
}

// Search returns the spoken-English summary of records in the collection
// matching term and filters. term matches any field substring,
// case-insensitively; filters require exact field equality.
func (r *Repository) Search(kind Kind, term string, filters map[string]string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch kind {
	case KindCustomers:
		return formatCustomers(filterRecords(r.customers, term, filters, customerFields)), nil
	case KindOrders:
		return formatOrders(filterRecords(r.orders, term, filters, orderFields)), nil
	case KindProducts:
		return formatProducts(filterRecords(r.products, term, filters, productFields)), nil
	case KindBookings:
		return formatBookings(filterRecords(r.bookings, term, filters, bookingFields)), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Customer finds a single customer by numeric ID or by name. Name lookup
// first tries a substring match, then falls back to Jaro-Winkler similarity
// so transcribed names like "Jon Dough" still resolve. Returns ErrNotFound
// when nothing scores high enough.
func (r *Repository) Customer(ref string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		for _, c := range r.customers {
			if c.ID == id {
				return c, nil
			}
		}
		return Customer{}, fmt.Errorf("%w: customer %d", ErrNotFound, id)
	}

	lower := strings.ToLower(ref)
	for _, c := range r.customers {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			return c, nil
		}
	}

	best := Customer{}
	bestScore := 0.0
	for _, c := range r.customers {
		score := matchr.JaroWinkler(lower, strings.ToLower(c.Name), true)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore >= nameSimilarityFloor {
		return best, nil
	}
	return Customer{}, fmt.Errorf("%w: customer %q", ErrNotFound, ref)
}

// CustomerOrders returns a customer's orders, newest first by date string.
func (r *Repository) CustomerOrders(customerID int) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b Order) int {
		return strings.Compare(b.Date, a.Date)
	})
	return out
}

// Inventory reports price and stock for the product whose name contains
// name, case-insensitively.
func (r *Repository) Inventory(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(name)
	for _, p := range r.products {
		if strings.Contains(strings.ToLower(p.Name), lower) {
			return fmt.Sprintf("%s is %s at %s with %d units on hand.",
				p.Name, stockStatus(p.Stock), dollars(p.Price), p.Stock), nil
		}
	}
	return "", fmt.Errorf("%w: product %q", ErrNotFound, name)
}

// Op names a mutation applied through Apply.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Apply mutates a collection. Add assigns the next free ID when the record
// carries none; update and delete require an "id" field. Fields not named
// in the record are left unchanged on update.
func (r *Repository) Apply(kind Kind, op Op, fields map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case KindCustomers:
		return applyTo(op, &r.customers, fields, setCustomerField, func(c *Customer) *int { return &c.ID })
	case KindOrders:
		return applyTo(op, &r.orders, fields, setOrderField, func(o *Order) *int { return &o.ID })
	case KindProducts:
		return applyTo(op, &r.products, fields, setProductField, func(p *Product) *int { return &p.ID })
	case KindBookings:
		return applyTo(op, &r.bookings, fields, setBookingField, func(b *Booking) *int { return &b.ID })
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// applyTo implements add/update/delete over one typed slice.
func applyTo[T any](op Op, records *[]T, fields map[string]string, set func(*T, string, string) error, id func(*T) *int) (string, error) {
	switch op {
	case OpAdd:
		var rec T
		for k, v := range fields {
			if k == "id" {
				continue
			}
			if err := set(&rec, k, v); err != nil {
				return "", err
			}
		}
		next := 1
		for i := range *records {
			if got := *id(&(*records)[i]); got >= next {
				next = got + 1
			}
		}
		*id(&rec) = next
		*records = append(*records, rec)
		return fmt.Sprintf("Added record %d.", next), nil

	case OpUpdate:
		target, err := recordID(fields)
		if err != nil {
			return "", err
		}
		for i := range *records {
			if *id(&(*records)[i]) != target {
				continue
			}
			for k, v := range fields {
				if k == "id" {
					continue
				}
				if err := set(&(*records)[i], k, v); err != nil {
					return "", err
				}
			}
			return fmt.Sprintf("Updated record %d.", target), nil
		}
		return "", fmt.Errorf("%w: record %d", ErrNotFound, target)

	case OpDelete:
		target, err := recordID(fields)
		if err != nil {
			return "", err
		}
		for i := range *records {
			if *id(&(*records)[i]) == target {
				*records = append((*records)[:i], (*records)[i+1:]...)
				return fmt.Sprintf("Deleted record %d.", target), nil
			}
		}
		return "", fmt.Errorf("%w: record %d", ErrNotFound, target)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}
}

func recordID(fields map[string]string) (int, error) {
	raw, ok := fields["id"]
	if !ok {
		return 0, ErrMissingID
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", ErrInvalidField, raw)
	}
	return id, nil
}

func setCustomerField(c *Customer, key, value string) error {
	switch key {
	case "name":
		c.Name = value
	case "email":
		c.Email = value
	case "phone":
		c.Phone = value
	case "status":
		c.Status = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, key)
	}
	return nil
}

func setOrderField(o *Order, key, value string) error {
	switch key {
	case "customer_id":
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: customer_id %q", ErrInvalidField, value)
		}
		o.CustomerID = id
	case "date":
		o.Date = value
	case "total":
		total, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: total %q", ErrInvalidField, value)
		}
		o.Total = total
	case "status":
		o.Status = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, key)
	}
	return nil
}

func setProductField(p *Product, key, value string) error {
	switch key {
	case "name":
		p.Name = value
	case "price":
		price, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: price %q", ErrInvalidField, value)
		}
		p.Price = price
	case "stock":
		stock, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: stock %q", ErrInvalidField, value)
		}
		p.Stock = stock
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, key)
	}
	return nil
}

func setBookingField(b *Booking, key, value string) error {
	switch key {
	case "customer_name":
		b.CustomerName = value
	case "date":
		b.Date = value
	case "time":
		b.Time = value
	case "service":
		b.Service = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, key)
	}
	return nil
}

// fieldsOf extracts the searchable field map of a record for term and
// filter matching.
type fieldsOf[T any] func(T) map[string]string

func customerFields(c Customer) map[string]string {
	return map[string]string{
		"id": strconv.Itoa(c.ID), "name": c.Name, "email": c.Email,
		"phone": c.Phone, "status": c.Status,
	}
}

func orderFields(o Order) map[string]string {
	return map[string]string{
		"id": strconv.Itoa(o.ID), "customer_id": strconv.Itoa(o.CustomerID),
		"date": o.Date, "total": strconv.FormatFloat(o.Total, 'f', 2, 64),
		"status": o.Status,
	}
}

func productFields(p Product) map[string]string {
	return map[string]string{
		"id": strconv.Itoa(p.ID), "name": p.Name,
		"price": strconv.FormatFloat(p.Price, 'f', 2, 64),
		"stock": strconv.Itoa(p.Stock),
	}
}

func bookingFields(b Booking) map[string]string {
	return map[string]string{
		"id": strconv.Itoa(b.ID), "customer_name": b.CustomerName,
		"date": b.Date, "time": b.Time, "service": b.Service,
	}
}

func filterRecords[T any](records []T, term string, filters map[string]string, fields fieldsOf[T]) []T {
	var out []T
	lower := strings.ToLower(term)
	for _, rec := range records {
		fs := fields(rec)
		if term != "" && !anyFieldContains(fs, lower) {
			continue
		}
		if !matchesFilters(fs, filters) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func anyFieldContains(fields map[string]string, lower string) bool {
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), lower) {
			return true
		}
	}
	return false
}

func matchesFilters(fields map[string]string, filters map[string]string) bool {
	for k, want := range filters {
		if !strings.EqualFold(fields[k], want) {
			return false
		}
	}
	return true
}
