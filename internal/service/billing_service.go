package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/medprep/medmcq-backend/internal/billing"
	"github.com/medprep/medmcq-backend/internal/model"
	"github.com/rs/zerolog"
)

// BillingUsers is the user storage the billing flow needs.
type BillingUsers interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error)
	SetStripeCustomerID(ctx context.Context, id int, customerID string) error
	UpdateSubscription(ctx context.Context, id int, upd model.SubscriptionUpdate) error
}

// BillingPlans looks up purchasable plans.
type BillingPlans interface {
	GetByID(ctx context.Context, id string) (*model.Plan, error)
}

// BillingPayments stores settled payments.
type BillingPayments interface {
	Create(ctx context.Context, p *model.Payment) error
	ListByUser(ctx context.Context, userID, limit int) ([]model.Payment, error)
}

// BillingService creates payment intents and applies webhook events to
// subscriptions. A nil provider disables the payment endpoints.
type BillingService struct {
	users    BillingUsers
	plans    BillingPlans
	payments BillingPayments
	provider billing.Provider
	currency string
	log      zerolog.Logger
}

// NewBillingService creates a new BillingService.
func NewBillingService(
	users BillingUsers,
	plans BillingPlans,
	payments BillingPayments,
	provider billing.Provider,
	currency string,
	log zerolog.Logger,
) *BillingService {
	return &BillingService{
		users:    users,
		plans:    plans,
		payments: payments,
		provider: provider,
		currency: strings.ToLower(currency),
		log:      log.With().Str("component", "billing_service").Logger(),
	}
}

// Enabled reports whether a payment provider is configured.
func (s *BillingService) Enabled() bool {
	return s.provider != nil
}

// CreatePaymentIntent starts a checkout for a plan, creating the processor
// customer on first use.
func (s *BillingService) CreatePaymentIntent(ctx context.Context, userID int, planID string) (*model.PaymentIntentResponse, error) {
	if !s.Enabled() {
		return nil, ErrBillingDisabled
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, billing.IntentParams{
		CustomerID:  customerID,
		Amount:      int64(plan.Price) * 100,
		Currency:    s.currency,
		Description: plan.Name,
		Metadata: map[string]string{
			"userId": strconv.Itoa(user.ID),
			"planId": plan.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create payment intent: %w", ErrPaymentProvider, err)
	}

	s.log.Info().
		Int("user_id", user.ID).
		Str("plan_id", plan.ID).
		Str("intent_id", intent.ID).
		Msg("Payment intent created")

	return &model.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

func (s *BillingService) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	customerID, err := s.provider.CreateCustomer(ctx, billing.Customer{
		UserID: user.ID,
		Email:  user.Email,
		Name:   name,
	})
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %w", ErrPaymentProvider, err)
	}
	if err := s.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return "", fmt.Errorf("store customer id: %w", err)
	}
	return customerID, nil
}

// HandleWebhook verifies and applies a billing webhook. Events for unknown
// customers are acknowledged and dropped so the processor stops retrying.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !s.Enabled() {
		return ErrBillingDisabled
	}

	ev, err := s.provider.ParseEvent(ctx, payload, signature)
	if err != nil {
		return err
	}
	if ev.Type == billing.EventIgnored {
		return nil
	}

	log := s.log.With().Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Logger()

	user, err := s.users.GetByStripeCustomerID(ctx, ev.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Str("customer_id", ev.CustomerID).Msg("Webhook for unknown customer, ignoring")
			return nil
		}
		return err
	}

	if ev.Subscription != nil {
		upd := model.SubscriptionUpdate{
			SubscriptionID: ev.Subscription.ID,
			Status:         model.SubscriptionStatus(ev.Subscription.Status),
			PlanID:         ev.Subscription.PlanID,
		}
		if ev.Type == billing.EventSubscriptionDeleted {
			upd.Status = model.SubscriptionCanceled
		}
		if !ev.Subscription.CurrentPeriodEnd.IsZero() {
			end := ev.Subscription.CurrentPeriodEnd
			upd.ExpiresAt = &end
		}
		if err := s.users.UpdateSubscription(ctx, user.ID, upd); err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		log.Info().
			Int("user_id", user.ID).
			Str("status", string(upd.Status)).
			Str("plan_id", upd.PlanID).
			Msg("Subscription updated")
	}

	if ev.Type == billing.EventInvoicePaid && ev.Payment != nil {
		p := &model.Payment{
			UserID:          user.ID,
			StripePaymentID: ev.Payment.ID,
			Amount:          ev.Payment.Amount,
			Currency:        ev.Payment.Currency,
			Status:          ev.Payment.Status,
			PaymentMethod:   ev.Payment.Method,
			Description:     ev.Payment.Description,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
	}
	return nil
}

// ListPayments returns the user's most recent payments.
func (s *BillingService) ListPayments(ctx context.Context, userID, limit int) ([]model.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	payments, err := s.payments.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return payments, nil
}
