package models

import "time"

// Enrollment links a participant to a class they paid for.
type Enrollment struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id" binding:"required"`
	ClassID   string     `json:"class_id" binding:"required"`
	OrderID   string     `json:"order_id,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type Testimonial struct {
	ID      string `json:"id"`
	Name    string `json:"name" binding:"required,max=100"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content" binding:"required,max=2000"`
	Visible bool   `json:"visible"`
}

type Feedback struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	ClassID   string     `json:"class_id,omitempty"`
	Rating    int        `json:"rating" binding:"required,min=1,max=5"`
	Message   string     `json:"message" binding:"max=2000"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Shortlink maps a short slug to a target URL.
type Shortlink struct {
	ID     string `json:"id"`
	Slug   string `json:"slug" binding:"required,slug"`
	Target string `json:"target" binding:"required,url"`
	Clicks int64  `json:"clicks,omitempty"`
}
