package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/internal/validation"
)

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing collection. Usage: catersync create <collection> [--file payload.json]")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	file := fs.String("file", "", "Read the payload from a JSON file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var payload json.RawMessage
	if kind == models.KindOrders && *file == "" {
		payload, err = c.promptOrder()
	} else {
		payload, err = c.readPayload(*file)
	}
	if err != nil {
		return err
	}

	if err := validation.ValidatePayload(kind, payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	entityCache, err := c.caches.For(kind)
	if err != nil {
		return err
	}

	rec, err := entityCache.Create(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to create %s record: %w", kind, err)
	}

	c.io.Println()
	c.io.Printf("✓ Created %s record %s\n", kind, rec.LocalID)
	if rec.Status.Pending() {
		c.io.Println("The server is unreachable; the record is queued and will sync when back online.")
	}
	return nil
}

// promptOrder builds an order payload interactively.
func (c *Cli) promptOrder() (json.RawMessage, error) {
	c.io.Println("=== New Order ===")
	c.io.Println()

	order := models.Order{Status: models.OrderStatusDraft}

	var err error
	if order.ClientName, err = c.io.ReadInput("Client name: "); err != nil {
		return nil, fmt.Errorf("failed to read client name: %w", err)
	}
	if order.TailNumber, err = c.io.ReadInput("Tail number (optional): "); err != nil {
		return nil, fmt.Errorf("failed to read tail number: %w", err)
	}

	deliveryStr, err := c.io.ReadInput("Delivery time (RFC 3339, e.g. 2026-04-01T09:30:00Z): ")
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery time: %w", err)
	}
	if order.DeliveryAt, err = time.Parse(time.RFC3339, deliveryStr); err != nil {
		return nil, fmt.Errorf("invalid delivery time: expected RFC 3339 timestamp")
	}

	if order.Notes, err = c.io.ReadInput("Notes (optional): "); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	c.io.Println()
	c.io.Println("Add line items (empty name finishes):")
	for {
		item, done, err := c.promptOrderItem(len(order.Items) + 1)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		order.Items = append(order.Items, item)
	}

	return json.Marshal(order)
}

func (c *Cli) promptOrderItem(n int) (models.OrderItem, bool, error) {
	var item models.OrderItem

	name, err := c.io.ReadInput(fmt.Sprintf("Item %d name: ", n))
	if err != nil {
		return item, false, fmt.Errorf("failed to read item name: %w", err)
	}
	if name == "" {
		return item, true, nil
	}
	item.Name = name

	qtyStr, err := c.io.ReadInput("  Quantity: ")
	if err != nil {
		return item, false, fmt.Errorf("failed to read quantity: %w", err)
	}
	if item.Quantity, err = strconv.Atoi(qtyStr); err != nil || item.Quantity <= 0 {
		return item, false, fmt.Errorf("quantity must be a positive number")
	}

	priceStr, err := c.io.ReadInput("  Unit price: ")
	if err != nil {
		return item, false, fmt.Errorf("failed to read unit price: %w", err)
	}
	if item.UnitPrice, err = strconv.ParseFloat(priceStr, 64); err != nil || item.UnitPrice < 0 {
		return item, false, fmt.Errorf("unit price must be a non-negative number")
	}

	if item.Notes, err = c.io.ReadInput("  Notes (optional): "); err != nil {
		return item, false, fmt.Errorf("failed to read item notes: %w", err)
	}

	return item, false, nil
}
