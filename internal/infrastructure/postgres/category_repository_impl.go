package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository"
)

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *entity.Category) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, add_date
	`, c.Name)
	if err := row.Scan(&c.ID, &c.AddDate); err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return repository.ErrDuplicateName
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	c := &entity.Category{}
	row := r.db.QueryRow(ctx, `SELECT id, name, add_date FROM categories WHERE name = $1`, name)
	if err := row.Scan(&c.ID, &c.Name, &c.AddDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context, offset, limit int) ([]entity.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, add_date FROM categories ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Category, 0)
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.AddDate); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)
