package model

import "time"

const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

type Order struct {
	ID         string      `json:"id"`
	CustomerID string      `json:"customer_id"`
	Status     string      `json:"status"`
	Total      int         `json:"total"`
	Address    string      `json:"address"`
	Phone      string      `json:"phone"`
	Items      []OrderItem `json:"items"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	StoreID     string `json:"store_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"`
	ListedPrice int    `json:"listed_price"`
	Subtotal    int    `json:"subtotal"`
}

// CartLine is one entry of the client-side cart submitted at checkout.
// UnitPrice is zero unless the customer committed a negotiated price, in
// which case DealToken carries the signed deal from the commit.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price,omitempty"`
	DealToken string `json:"deal_token,omitempty"`
}
