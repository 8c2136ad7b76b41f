package repository

import (
	"context"

	"github.com/oksasatya/fastbb/internal/domain/entity"
)

// CategoryRepository defines persistence for post categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *entity.Category) error
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	List(ctx context.Context, offset, limit int) ([]entity.Category, error)
}
