package models

import "time"

// CartLine is one entry of a visitor cart. Qty is always >= 1.
type CartLine struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// PricedLine is a cart line resolved against the catalog for display.
type PricedLine struct {
	ID        string `json:"id"`
	Qty       int    `json:"qty"`
	Title     string `json:"title,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
	Resolved  bool   `json:"resolved"`
}

// CartView is what the storefront renders for the cart drawer and badge.
type CartView struct {
	Lines       []PricedLine `json:"lines"`
	TotalCount  int          `json:"total_count"`
	TotalAmount int64        `json:"total_amount"`
}

// StoredCart is the persisted form of a visitor cart.
type StoredCart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}
