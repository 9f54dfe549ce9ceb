package model

import "time"

// Plan is a purchasable subscription tier. Prices are whole currency units.
type Plan struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Price               int       `json:"price"`
	AnnualPrice         *int      `json:"annual_price,omitempty"`
	Features            []string  `json:"features"`
	StripePriceID       *string   `json:"-"`
	StripeAnnualPriceID *string   `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreatePaymentIntentRequest starts a checkout for a plan.
type CreatePaymentIntentRequest struct {
	PlanID string `json:"plan_id" binding:"required,max=64"`
}

// PaymentIntentResponse hands the client what it needs to confirm payment.
type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}
