package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medprep/medmcq-backend/internal/model"
)

// ModuleRepository handles module data access.
type ModuleRepository struct {
	pool *pgxpool.Pool
}

// NewModuleRepository creates a new ModuleRepository.
func NewModuleRepository(pool *pgxpool.Pool) *ModuleRepository {
	return &ModuleRepository{pool: pool}
}

// GetByID retrieves a module with its question count.
func (r *ModuleRepository) GetByID(ctx context.Context, id string) (*model.Module, error) {
	m := &model.Module{}
	err := r.pool.QueryRow(ctx,
		`SELECT m.id, m.name, m.description, m.is_premium, m.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.module_id = m.id)
		 FROM modules m WHERE m.id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.IsPremium, &m.CreatedAt, &m.QuestionCount)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves all modules ordered by name.
func (r *ModuleRepository) List(ctx context.Context) ([]model.Module, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.name, m.description, m.is_premium, m.created_at, COUNT(q.id)
		 FROM modules m
		 LEFT JOIN questions q ON q.module_id = m.id
		 GROUP BY m.id
		 ORDER BY m.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.IsPremium, &m.CreatedAt, &m.QuestionCount); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// Upsert creates a module or refreshes its descriptive fields.
func (r *ModuleRepository) Upsert(ctx context.Context, m *model.Module) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO modules (id, name, description, is_premium)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, description = EXCLUDED.description, is_premium = EXCLUDED.is_premium
		 RETURNING created_at`,
		m.ID, m.Name, m.Description, m.IsPremium,
	).Scan(&m.CreatedAt)
}
