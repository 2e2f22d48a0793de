package model

import "time"

// NegotiationEntry is one rendered line of a price dialogue.
type NegotiationEntry struct {
	Speaker string `json:"speaker"` // user | engine
	Content string `json:"content"`
}

// NegotiationSession is the client-facing snapshot of an open dialogue.
// The minimum acceptable price is deliberately absent.
type NegotiationSession struct {
	ID            string             `json:"id"`
	ProductID     string             `json:"product_id"`
	ProductName   string             `json:"product_name"`
	ListedPrice   int                `json:"listed_price"`
	Language      string             `json:"language"`
	Transcript    []NegotiationEntry `json:"transcript"`
	LastOffer     *int               `json:"last_offer,omitempty"` // Nullable
	OfferAccepted bool               `json:"offer_accepted"`
}

// NegotiationReply is returned for each submitted offer.
type NegotiationReply struct {
	Outcome         string             `json:"outcome"`
	Content         string             `json:"content"`
	Offer           *int               `json:"offer,omitempty"`
	DiscountPercent int                `json:"discount_percent,omitempty"`
	CounterOffer    int                `json:"counter_offer,omitempty"`
	SuggestedOffer  int                `json:"suggested_offer,omitempty"`
	Session         NegotiationSession `json:"session"`
}

// NegotiatedPrice is what a committed dialogue hands back to the cart.
// DealToken must accompany FinalPrice at checkout until ExpiresAt.
type NegotiatedPrice struct {
	ProductID       string    `json:"product_id"`
	FinalPrice      int       `json:"final_price"`
	DiscountPercent int       `json:"discount_percent"`
	DealToken       string    `json:"deal_token"`
	ExpiresAt       time.Time `json:"expires_at"`
}
