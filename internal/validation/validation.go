// Package validation holds input checks shared by the client and the
// server.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/avikom/catersync/internal/models"
)

// UsernamePattern is the accepted username format: latin letters,
// digits and underscores, 3-32 characters.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32

	// MinPasswordLen is the minimum account password length.
	MinPasswordLen = 8
)

// ValidateUsername checks the username against UsernamePattern.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}
	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}
	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	return nil
}

// orderStatuses are the accepted order lifecycle states.
var orderStatuses = map[string]bool{
	models.OrderStatusDraft:     true,
	models.OrderStatusSubmitted: true,
	models.OrderStatusConfirmed: true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

// ValidatePayload checks a record payload before it is accepted. Orders
// get field-level checks; other kinds only need to be a JSON object.
func ValidatePayload(kind models.Kind, data json.RawMessage) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown collection %q", kind)
	}

	if kind != models.KindOrders {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("payload must be a JSON object: %w", err)
		}
		return nil
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return fmt.Errorf("malformed order payload: %w", err)
	}
	return ValidateOrder(&order)
}

// ValidateOrder checks the order fields the backend refuses to accept
// blank or out of range.
func ValidateOrder(order *models.Order) error {
	if order.ClientName == "" {
		return fmt.Errorf("client_name is required")
	}
	if order.DeliveryAt.IsZero() {
		return fmt.Errorf("delivery_at is required")
	}
	if order.Status != "" && !orderStatuses[order.Status] {
		return fmt.Errorf("unknown order status %q", order.Status)
	}
	if order.GratuityPct < 0 || order.GratuityPct > 100 {
		return fmt.Errorf("gratuity_pct must be between 0 and 100")
	}
	if order.DeliveryFee < 0 {
		return fmt.Errorf("delivery_fee cannot be negative")
	}
	for i, item := range order.Items {
		if item.Name == "" {
			return fmt.Errorf("items[%d]: name is required", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("items[%d]: quantity must be positive", i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("items[%d]: unit_price cannot be negative", i)
		}
	}
	return nil
}
