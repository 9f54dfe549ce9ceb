package model

import "time"

// Payment is a settled charge recorded from a billing webhook.
type Payment struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	StripePaymentID string    `json:"stripe_payment_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentMethod   string    `json:"payment_method,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
