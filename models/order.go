package models

import "time"

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusExpired  OrderStatus = "expired"
)

// OrderItem is one class/quantity pair in an order request.
type OrderItem struct {
	ClassID string `json:"class_id" binding:"required"`
	Qty     int    `json:"qty" binding:"required,min=1"`
}

// OrderRequest is the body sent to the order creation endpoint.
type OrderRequest struct {
	Items      []OrderItem `json:"items"`
	SenderName string      `json:"sender_name,omitempty"`
	Note       string      `json:"note,omitempty"`
	ProofURL   string      `json:"proof_url"`
}

// Order is the resource created by the course API.
type Order struct {
	ID         string      `json:"id"`
	Status     OrderStatus `json:"status" binding:"required,oneof=pending approved rejected expired"`
	Items      []OrderItem `json:"items,omitempty" binding:"omitempty,dive"`
	SenderName string      `json:"sender_name,omitempty"`
	Note       string      `json:"note,omitempty"`
	ProofURL   string      `json:"proof_url,omitempty" binding:"omitempty,url"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
}

// OrderSubmittedEvent is published after a checkout completes.
type OrderSubmittedEvent struct {
	EventType   string      `json:"event_type"`
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	SessionID   string      `json:"session_id"`
	UserID      string      `json:"user_id,omitempty"`
	Items       []OrderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	ProofURL    string      `json:"proof_url"`
	SenderName  string      `json:"sender_name,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}
