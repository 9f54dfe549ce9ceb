package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

var ErrDuplicateEmail = errors.New("user with this email already exists")

const userColumns = `id, email, password_hash, first_name, last_name, specialization, profile_image_url,
	stripe_customer_id, stripe_subscription_id, subscription_status, subscription_plan,
	subscription_expires_at, created_at, updated_at`

// UserRepository handles user data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Specialization,
		&u.ProfileImageURL, &u.StripeCustomerID, &u.StripeSubscriptionID, &u.SubscriptionStatus,
		&u.SubscriptionPlan, &u.SubscriptionExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by their unique email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// GetByStripeCustomerID retrieves the user linked to a billing customer.
func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_customer_id = $1`, customerID))
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, specialization)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, subscription_status, created_at, updated_at`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Specialization,
	).Scan(&u.ID, &u.SubscriptionStatus, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateProfile patches the editable profile fields, leaving nil fields alone.
func (r *UserRepository) UpdateProfile(ctx context.Context, id int, req model.UpdateProfileRequest) (*model.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET
		     first_name = COALESCE($2, first_name),
		     last_name = COALESCE($3, last_name),
		     specialization = COALESCE($4, specialization),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, req.FirstName, req.LastName, req.Specialization,
	))
}

// UpdatePassword sets a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, hash, id)
	return err
}

// SetStripeCustomerID links a billing customer to the user.
func (r *UserRepository) SetStripeCustomerID(ctx context.Context, id int, customerID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET stripe_customer_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, customerID, id)
	return err
}

// UpdateSubscription applies a billing event to the user's subscription fields.
// Empty plan and subscription ids keep their stored values.
func (r *UserRepository) UpdateSubscription(ctx context.Context, id int, upd model.SubscriptionUpdate) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET
		     stripe_subscription_id = COALESCE(NULLIF($2, ''), stripe_subscription_id),
		     subscription_status = $3,
		     subscription_plan = COALESCE(NULLIF($4, ''), subscription_plan),
		     subscription_expires_at = COALESCE($5, subscription_expires_at),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		id, upd.SubscriptionID, upd.Status, upd.PlanID, upd.ExpiresAt,
	)
	return err
}
