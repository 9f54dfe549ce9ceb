// Package billing is the payment processor boundary. Services talk to a
// Provider and receive normalised events, never processor SDK types.
package billing

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Provider is a payment processor.
type Provider interface {
	CreateCustomer(ctx context.Context, c Customer) (string, error)
	CreatePaymentIntent(ctx context.Context, p IntentParams) (*Intent, error)
	ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// Customer identifies a user to the processor.
type Customer struct {
	UserID int
	Email  string
	Name   string
}

// IntentParams describes a one-off charge. Amount is in minor units.
type IntentParams struct {
	CustomerID  string
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// Intent is a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// EventType is a webhook event kind the service acts on.
type EventType string

const (
	EventInvoicePaid         EventType = "invoice.paid"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
	EventIgnored             EventType = "ignored"
)

// Event is a verified, normalised webhook event.
type Event struct {
	ID           string
	Type         EventType
	CustomerID   string
	Subscription *Subscription
	Payment      *Payment
}

// Subscription is the subscription state carried by an event.
type Subscription struct {
	ID               string
	Status           string
	PlanID           string
	CurrentPeriodEnd time.Time
}

// Payment is a settled charge carried by an event.
type Payment struct {
	ID          string
	Amount      int64
	Currency    string
	Status      string
	Method      string
	Description string
}
