package repository

import (
	"context"

	"github.com/oksasatya/fastbb/internal/domain/entity"
)

// PostRepository defines persistence for posts and their reply trees.
type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id int64) (*entity.Post, error)
	ListByCategory(ctx context.Context, categoryID int64, offset, limit int) ([]entity.Post, error)
	ListByUser(ctx context.Context, userID int64, offset, limit int) ([]entity.Post, error)
	// Subtree returns the post with the given id followed by all of its
	// descendants, ordered so that parents precede their children.
	Subtree(ctx context.Context, rootID int64) ([]entity.Post, error)
}
