package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
	"github.com/oksasatya/fastbb/pkg/helpers"
)

const (
	defaultPageSize  = 100
	categoryCacheTTL = 10 * time.Minute
)

func categoryKey(name string) string { return "category:name:" + name }

// page clamps skip/limit the way every listing endpoint expects.
func page(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	return skip, limit
}

type CategoryService struct {
	Repo   repo.CategoryRepository
	Redis  *redis.Client
	Logger *logrus.Logger
}

func NewCategoryService(repo repo.CategoryRepository, rdb *redis.Client, logger *logrus.Logger) *CategoryService {
	return &CategoryService{Repo: repo, Redis: rdb, Logger: logger}
}

// Create adds a category. Only active admins may do so.
func (s *CategoryService) Create(ctx context.Context, actor *entity.User, name string) (*entity.Category, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name can not be empty")
	}
	if _, err := s.Repo.GetByName(ctx, name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	c := &entity.Category{Name: name}
	if err := s.Repo.Create(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicateName) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithField("category", c.Name).WithField("user_id", actor.ID).Info("category created")
	}
	return c, nil
}

// GetByName looks a category up, through the Redis cache when available.
func (s *CategoryService) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	if s.Redis != nil {
		var cached entity.Category
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, categoryKey(name), &cached); err == nil && ok {
			return &cached, nil
		} else if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("category", name).Warn("category cache read failed")
		}
	}

	c, err := s.Repo.GetByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, categoryKey(name), c, categoryCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("category", name).Warn("category cache write failed")
		}
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, skip, limit int) ([]entity.Category, error) {
	skip, limit = page(skip, limit)
	return s.Repo.List(ctx, skip, limit)
}
