package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// PaymentRepository handles payment data access.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create records a payment. Redelivered webhooks carry the same processor
// id and are ignored.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments (user_id, stripe_payment_id, amount, currency, status, payment_method, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (stripe_payment_id) DO NOTHING`,
		p.UserID, p.StripePaymentID, p.Amount, p.Currency, p.Status, p.PaymentMethod, p.Description,
	)
	return err
}

// ListByUser retrieves a user's most recent payments.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, stripe_payment_id, amount, currency, status, payment_method, description, created_at
		 FROM payments WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.StripePaymentID, &p.Amount, &p.Currency, &p.Status,
			&p.PaymentMethod, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
