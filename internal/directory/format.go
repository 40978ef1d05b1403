package directory

import (
	"fmt"
	"strings"
)

// spokenLimit caps listed results so a synthesized reply stays short.
const spokenLimit = 5

func formatCustomers(customers []Customer) string {
	if len(customers) == 0 {
		return "I couldn't find any customers matching your criteria."
	}
	if len(customers) == 1 {
		c := customers[0]
		return fmt.Sprintf("Found customer %s, email %s, phone %s, status %s.",
			c.Name, c.Email, c.Phone, c.Status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d customers: ", len(customers))
	for i, c := range customers {
		if i == spokenLimit {
			fmt.Fprintf(&b, "and %d more", len(customers)-spokenLimit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%s)", c.Name, c.Status)
	}
	b.WriteString(".")
	return b.String()
}

func formatOrders(orders []Order) string {
	if len(orders) == 0 {
		return "I couldn't find any orders matching your criteria."
	}
	if len(orders) == 1 {
		o := orders[0]
		return fmt.Sprintf("Order %d for %s, placed %s, status %s.",
			o.ID, dollars(o.Total), o.Date, o.Status)
	}

	var total float64
	for _, o := range orders {
		total += o.Total
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d orders totalling %s: ", len(orders), dollars(total))
	for i, o := range orders {
		if i == spokenLimit {
			fmt.Fprintf(&b, "and %d more", len(orders)-spokenLimit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "order %d at %s (%s)", o.ID, dollars(o.Total), o.Status)
	}
	b.WriteString(".")
	return b.String()
}

func formatProducts(products []Product) string {
	if len(products) == 0 {
		return "I couldn't find any products matching your criteria."
	}
	if len(products) == 1 {
		p := products[0]
		return fmt.Sprintf("%s costs %s and is %s with %d units.",
			p.Name, dollars(p.Price), stockStatus(p.Stock), p.Stock)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d products: ", len(products))
	for i, p := range products {
		if i == spokenLimit {
			fmt.Fprintf(&b, "and %d more", len(products)-spokenLimit)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s at %s (%d units)", p.Name, dollars(p.Price), p.Stock)
	}
	b.WriteString(".")
	return b.String()
}

func formatBookings(bookings []Booking) string {
	if len(bookings) == 0 {
		return "I couldn't find any bookings matching your criteria."
	}
	if len(bookings) == 1 {
		b := bookings[0]
		return fmt.Sprintf("Booking with %s on %s at %s for %s.",
			b.CustomerName, b.Date, b.Time, b.Service)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d bookings: ", len(bookings))
	for i, b := range bookings {
		if i == spokenLimit {
			fmt.Fprintf(&sb, "and %d more", len(bookings)-spokenLimit)
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s on %s at %s (%s)", b.CustomerName, b.Date, b.Time, b.Service)
	}
	sb.WriteString(".")
	return sb.String()
}

// Profile renders one customer with their recent orders for a spoken reply.
func (r *Repository) Profile(ref string) (string, error) {
	c, err := r.Customer(ref)
	if err != nil {
		return "", err
	}
	orders := r.CustomerOrders(c.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "%s, email %s, phone %s, status %s.", c.Name, c.Email, c.Phone, c.Status)
	if len(orders) > 0 {
		fmt.Fprintf(&b, " %d orders on file", len(orders))
		shown := orders
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, o := range shown {
			fmt.Fprintf(&b, ", order %d at %s (%s)", o.ID, dollars(o.Total), o.Status)
		}
		b.WriteString(".")
	}
	return b.String(), nil
}

func stockStatus(stock int) string {
	switch {
	case stock > 10:
		return "in stock"
	case stock > 0:
		return "low on stock"
	default:
		return "out of stock"
	}
}

func dollars(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
