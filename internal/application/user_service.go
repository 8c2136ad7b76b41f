package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	repo "github.com/oksasatya/fastbb/internal/domain/repository"
	"github.com/oksasatya/fastbb/pkg/helpers"
)

// ObjectUploader stores an object and returns its public URL.
type ObjectUploader func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)

// GCSUploader adapts a storage client and bucket to an ObjectUploader.
func GCSUploader(client *storage.Client, bucket string) ObjectUploader {
	if client == nil || bucket == "" {
		return nil
	}
	return func(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
		return helpers.UploadObject(ctx, client, bucket, objectPath, contentType, r)
	}
}

type UserService struct {
	Repo   repo.UserRepository
	Upload ObjectUploader
	Logger *logrus.Logger
}

func NewUserService(repo repo.UserRepository, upload ObjectUploader, logger *logrus.Logger) *UserService {
	return &UserService{Repo: repo, Upload: upload, Logger: logger}
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]entity.User, error) {
	skip, limit = page(skip, limit)
	return s.Repo.List(ctx, skip, limit)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := s.Repo.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadAvatar stores an image for the user and records its URL.
func (s *UserService) UploadAvatar(ctx context.Context, u *entity.User, r io.Reader, filename, contentType string) (*entity.User, error) {
	if err := RequireActive(u); err != nil {
		return nil, err
	}
	if s.Upload == nil {
		return nil, ErrStorageUnavailable
	}
	if !allowedAvatarTypes[strings.ToLower(contentType)] {
		return nil, invalid("avatar must be a png, jpeg, gif or webp image")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", strconv.FormatInt(u.ID, 10), uuid.NewString()+ext))
	url, err := s.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("avatar upload failed")
		}
		return nil, err
	}
	if err := s.Repo.UpdateAvatar(ctx, u.ID, url); err != nil {
		return nil, err
	}
	updated := *u
	updated.AvatarURL = url
	return &updated, nil
}
