package model

import "time"

// Approval states shared by stores and products.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Product struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int       `json:"price"` // whole FCFA
	Unit        string    `json:"unit"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	Negotiable  bool      `json:"negotiable"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	StoreID  string
	Category string
	Search   string
	Status   string
	// PublicOnly restricts results to approved products of approved stores.
	PublicOnly bool
	Limit      int
	Offset     int
}
