package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// PlanRepository handles subscription plan data access.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// List retrieves all plans, cheapest first.
func (r *PlanRepository) List(ctx context.Context) ([]model.Plan, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, price, annual_price, features, stripe_price_id, stripe_annual_price_id, created_at
		 FROM plans ORDER BY price, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AnnualPrice, &p.Features,
			&p.StripePriceID, &p.StripeAnnualPriceID, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetByID retrieves a plan.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	p := &model.Plan{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, price, annual_price, features, stripe_price_id, stripe_annual_price_id, created_at
		 FROM plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.AnnualPrice, &p.Features,
		&p.StripePriceID, &p.StripeAnnualPriceID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
