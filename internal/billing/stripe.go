package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements Provider on top of the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	log           zerolog.Logger
}

// NewStripeProvider creates a StripeProvider.
func NewStripeProvider(secretKey, webhookSecret string, log zerolog.Logger) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		log:           log.With().Str("component", "stripe_provider").Logger(),
	}
}

// CreateCustomer registers the user with Stripe and returns the customer id.
func (p *StripeProvider) CreateCustomer(ctx context.Context, c Customer) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(c.Email),
	}
	if c.Name != "" {
		params.Name = stripe.String(c.Name)
	}
	params.AddMetadata("userId", strconv.Itoa(c.UserID))

	cus, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cus.ID, nil
}

// CreatePaymentIntent creates a PaymentIntent for the customer.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, in IntentParams) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(in.Amount),
		Currency: stripe.String(in.Currency),
		Customer: stripe.String(in.CustomerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ParseEvent verifies the Stripe-Signature header and normalises the event.
// Event kinds the service does not act on come back as EventIgnored.
func (p *StripeProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: EventType(ev.Type)}

	switch out.Type {
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.CustomerID = customerID(sub.Customer)
		out.Subscription = subscriptionOf(&sub)

	case EventInvoicePaid:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out.CustomerID = customerID(inv.Customer)
		out.Payment = &Payment{
			ID:          inv.ID,
			Amount:      inv.AmountPaid,
			Currency:    string(inv.Currency),
			Status:      string(inv.Status),
			Method:      "card",
			Description: inv.Description,
		}
		if inv.Subscription != nil && inv.Subscription.ID != "" {
			sub, err := p.api.Subscriptions.Get(inv.Subscription.ID, &stripe.SubscriptionParams{
				Params: stripe.Params{Context: ctx},
			})
			if err != nil {
				return nil, fmt.Errorf("fetch subscription %s: %w", inv.Subscription.ID, err)
			}
			out.Subscription = subscriptionOf(sub)
		}

	default:
		p.log.Debug().Str("type", string(ev.Type)).Msg("Ignoring webhook event")
		out.Type = EventIgnored
	}

	return out, nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// subscriptionOf resolves the plan from subscription metadata, then from
// the first item's price metadata or lookup key.
func subscriptionOf(sub *stripe.Subscription) *Subscription {
	s := &Subscription{
		ID:     sub.ID,
		Status: string(sub.Status),
		PlanID: sub.Metadata["planId"],
	}
	if sub.CurrentPeriodEnd > 0 {
		s.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if s.PlanID == "" && sub.Items != nil && len(sub.Items.Data) > 0 {
		if price := sub.Items.Data[0].Price; price != nil {
			s.PlanID = price.Metadata["planId"]
			if s.PlanID == "" {
				s.PlanID = price.LookupKey
			}
		}
	}
	return s
}
