// Package directorytool provides the business-record tools backed by a
// [directory.Repository].
//
// Four tools are exported via [Tools]:
//   - "lookup"          — search customers, orders, products, or bookings.
//   - "customer_info"   — one customer's profile with recent orders.
//   - "check_inventory" — price and stock for a product.
//   - "update_records"  — add, update, or delete a record.
package directorytool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ringline/ringline/internal/directory"
	"github.com/ringline/ringline/internal/tools"
)

// Deps carries the dependencies of the directory tools.
type Deps struct {
	Repo *directory.Repository
}

type lookupArgs struct {
	Kind    string            `json:"kind"`
	Term    string            `json:"term"`
	Filters map[string]string `json:"filters"`
}

func lookupHandler(d Deps) tools.Handler {
	return func(_ context.Context, args string) (string, error) {
		var a lookupArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("directorytool: failed to parse arguments: %w", err)
		}

		out, err := d.Repo.Search(directory.Kind(a.Kind), a.Term, a.Filters)
		if errors.Is(err, directory.ErrUnknownKind) {
			return fmt.Sprintf(
				"I don't have information about %s. I can help with customers, orders, products, or bookings.",
				a.Kind), nil
		}
		if err != nil {
			return "", err
		}
		return out, nil
	}
}

type customerArgs struct {
	Customer string `json:"customer"`
}

func customerHandler(d Deps) tools.Handler {
	return func(_ context.Context, args string) (string, error) {
		var a customerArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("directorytool: failed to parse arguments: %w", err)
		}
		if a.Customer == "" {
			return "", fmt.Errorf("directorytool: customer must not be empty")
		}

		out, err := d.Repo.Profile(a.Customer)
		if errors.Is(err, directory.ErrNotFound) {
			return fmt.Sprintf("I couldn't find a customer matching '%s'.", a.Customer), nil
		}
		if err != nil {
			return "", err
		}
		return out, nil
	}
}

type inventoryArgs struct {
	Product string `json:"product"`
}

func inventoryHandler(d Deps) tools.Handler {
	return func(_ context.Context, args string) (string, error) {
		var a inventoryArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("directorytool: failed to parse arguments: %w", err)
		}
		if a.Product == "" {
			return "", fmt.Errorf("directorytool: product must not be empty")
		}

		out, err := d.Repo.Inventory(a.Product)
		if errors.Is(err, directory.ErrNotFound) {
			return fmt.Sprintf("I couldn't find a product matching '%s'.", a.Product), nil
		}
		if err != nil {
			return "", err
		}
		return out, nil
	}
}

type updateArgs struct {
	Kind      string            `json:"kind"`
	Operation string            `json:"operation"`
	Record    map[string]string `json:"record"`
}

func updateHandler(d Deps) tools.Handler {
	return func(_ context.Context, args string) (string, error) {
		var a updateArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("directorytool: failed to parse arguments: %w", err)
		}

		out, err := d.Repo.Apply(directory.Kind(a.Kind), directory.Op(a.Operation), a.Record)
		switch {
		case errors.Is(err, directory.ErrUnknownKind):
			return fmt.Sprintf("I don't have access to %s records.", a.Kind), nil
		case errors.Is(err, directory.ErrUnknownOp):
			return fmt.Sprintf("Unknown operation '%s'. Please use add, update, or delete.", a.Operation), nil
		case errors.Is(err, directory.ErrMissingID):
			return "Please provide an ID for the record.", nil
		case errors.Is(err, directory.ErrNotFound):
			return "I couldn't find that record.", nil
		case err != nil:
			return "", err
		}
		return out, nil
	}
}

// Tools returns the directory tools ready for registration.
func Tools(d Deps) []tools.Tool {
	kindProp := map[string]any{
		"type":        "string",
		"description": "Record collection to target.",
		"enum":        []string{"customers", "orders", "products", "bookings"},
	}

	return []tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "lookup",
				Description: "Search business records for customer, order, product, or booking information.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"kind": kindProp,
						"term": map[string]any{"type": "string", "description": "Free-text search term matched against every field."},
						"filters": map[string]any{
							"type":        "object",
							"description": "Exact-match field filters, e.g. {\"status\": \"active\"}.",
						},
					},
					"required": []string{"kind"},
				},
				EstimatedDurationMs: 5,
				MaxDurationMs:       500,
			},
			Handler: lookupHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "customer_info",
				Description: "Get one customer's details and recent orders by name or numeric ID. Names tolerate transcription errors.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"customer": map[string]any{"type": "string", "description": "Customer name or numeric ID."},
					},
					"required": []string{"customer"},
				},
				EstimatedDurationMs: 5,
				MaxDurationMs:       500,
			},
			Handler: customerHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "check_inventory",
				Description: "Check price, stock level, and availability for a product.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"product": map[string]any{"type": "string", "description": "Product name or part of it."},
					},
					"required": []string{"product"},
				},
				EstimatedDurationMs: 5,
				MaxDurationMs:       500,
			},
			Handler: inventoryHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "update_records",
				Description: "Add, update, or delete a business record.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"kind":      kindProp,
						"operation": map[string]any{"type": "string", "enum": []string{"add", "update", "delete"}},
						"record": map[string]any{
							"type":        "object",
							"description": "Field values; update and delete require an id field.",
						},
					},
					"required": []string{"kind", "operation", "record"},
				},
				EstimatedDurationMs: 5,
				MaxDurationMs:       500,
			},
			Handler: updateHandler(d),
		},
	}
}
