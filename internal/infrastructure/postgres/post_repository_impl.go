package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository"
)

const postColumns = `id, text, reg_date, user_id, category_id, parent_id`

type PostRepository struct {
	db DBTX
}

func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row rowScanner) (*entity.Post, error) {
	p := &entity.Post{Children: []*entity.Post{}}
	if err := row.Scan(&p.ID, &p.Text, &p.RegDate, &p.UserID, &p.CategoryID, &p.ParentID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (text, user_id, category_id, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, reg_date
	`, p.Text, p.UserID, p.CategoryID, p.ParentID)
	if err := row.Scan(&p.ID, &p.RegDate); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if p.Children == nil {
		p.Children = []*entity.Post{}
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*entity.Post, error) {
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostRepository) ListByCategory(ctx context.Context, categoryID int64, offset, limit int) ([]entity.Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE category_id = $1 ORDER BY id OFFSET $2 LIMIT $3`, categoryID, offset, limit)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]entity.Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id = $1 ORDER BY id OFFSET $2 LIMIT $3`, userID, offset, limit)
}

func (r *PostRepository) Subtree(ctx context.Context, rootID int64) ([]entity.Post, error) {
	return r.list(ctx, `
		WITH RECURSIVE thread AS (
			SELECT `+postColumns+`, 0 AS depth FROM posts WHERE id = $1
			UNION ALL
			SELECT p.id, p.text, p.reg_date, p.user_id, p.category_id, p.parent_id, t.depth + 1
			FROM posts p
			JOIN thread t ON p.parent_id = t.id
		)
		SELECT `+postColumns+` FROM thread ORDER BY depth, id
	`, rootID)
}

func (r *PostRepository) list(ctx context.Context, query string, args ...any) ([]entity.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]entity.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

var _ repository.PostRepository = (*PostRepository)(nil)
