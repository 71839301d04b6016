package models

import "time"

// Order statuses as the backend reports them.
const (
	OrderStatusDraft     = "draft"
	OrderStatusSubmitted = "submitted"
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a catering order payload.
type Order struct {
	DeliveryAt  time.Time   `json:"delivery_at"`  // DeliveryAt requested delivery time at the FBO
	Status      string      `json:"status"`       // Status order status ("draft", "confirmed", ...)
	ClientName  string      `json:"client_name"`  // ClientName ordering client (denormalized for display)
	TailNumber  string      `json:"tail_number"`  // TailNumber aircraft registration
	Notes       string      `json:"notes"`        // Notes free-form handling notes
	Items       []OrderItem `json:"items"`        // Items ordered line items
	ClientID    int64       `json:"client_id"`    // ClientID server id of the client
	CatererID   int64       `json:"caterer_id"`   // CatererID server id of the fulfilling caterer
	AirportID   int64       `json:"airport_id"`   // AirportID server id of the destination airport
	FBOID       int64       `json:"fbo_id"`       // FBOID server id of the receiving FBO
	DeliveryFee float64     `json:"delivery_fee"` // DeliveryFee flat delivery fee
	GratuityPct float64     `json:"gratuity_pct"` // GratuityPct gratuity percentage applied to the subtotal
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name       string  `json:"name"`  // Name menu item name (denormalized)
	Notes      string  `json:"notes"` // Notes per-line preparation notes
	MenuItemID int64   `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// Subtotal returns the sum of line totals before fees and gratuity.
func (o *Order) Subtotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}

// Total returns the order total including delivery fee and gratuity.
func (o *Order) Total() float64 {
	sub := o.Subtotal()
	return sub + o.DeliveryFee + sub*o.GratuityPct/100
}

// Client is an ordering customer.
type Client struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
}

// Caterer is a catering vendor serving one or more airports.
type Caterer struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	AirportID int64  `json:"airport_id"`
}

// Airport is a destination airport.
type Airport struct {
	ICAO     string `json:"icao"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
}

// FBO is a fixed-base operator receiving deliveries at an airport.
type FBO struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	AirportID int64  `json:"airport_id"`
}

// MenuItem is one orderable catering item.
type MenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	CatererID   int64   `json:"caterer_id"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
}
