package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/fastbb/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateName     = errors.New("name already exists")
)

// UserRepository is the credential store: user identities plus their password hashes.
type UserRepository interface {
	FindCredentialByUsername(ctx context.Context, username string) (*entity.StoredCredential, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Insert(ctx context.Context, sc *entity.StoredCredential) (*entity.User, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
	UpdateAvatar(ctx context.Context, id int64, url string) error
	List(ctx context.Context, offset, limit int) ([]entity.User, error)
}
