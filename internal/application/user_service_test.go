package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/internal/domain/repository/repotest"
)

func TestUser_GetByUsernameAndList(t *testing.T) {
	users := repotest.NewUsers()
	users.Add(entity.User{Username: "bob", IsActive: true}, "")
	users.Add(entity.User{Username: "eve", IsActive: true}, "")
	svc := NewUserService(users, nil, nil)

	u, err := svc.GetByUsername(context.Background(), "eve")
	require.NoError(t, err)
	assert.Equal(t, "eve", u.Username)

	_, err = svc.GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUser_UploadAvatar(t *testing.T) {
	users := repotest.NewUsers()
	bob := users.Add(entity.User{Username: "bob", IsActive: true}, "")

	var gotPath, gotType, gotBody string
	upload := func(_ context.Context, objectPath, contentType string, r io.Reader) (string, error) {
		b, _ := io.ReadAll(r)
		gotPath, gotType, gotBody = objectPath, contentType, string(b)
		return "https://cdn.example/" + objectPath, nil
	}
	svc := NewUserService(users, upload, nil)

	u, err := svc.UploadAvatar(context.Background(), bob, strings.NewReader("PNGDATA"), "Me.PNG", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotPath, "avatars/1/"))
	assert.True(t, strings.HasSuffix(gotPath, ".png"))
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "PNGDATA", gotBody)
	assert.Equal(t, "https://cdn.example/"+gotPath, u.AvatarURL)
	assert.Equal(t, u.AvatarURL, users.ByID[bob.ID].User.AvatarURL)
	assert.Empty(t, bob.AvatarURL, "input user is not mutated")
}

func TestUser_UploadAvatar_Errors(t *testing.T) {
	users := repotest.NewUsers()
	bob := users.Add(entity.User{Username: "bob", IsActive: true}, "")
	ok := func(context.Context, string, string, io.Reader) (string, error) { return "u", nil }
	boom := errors.New("bucket unreachable")
	failing := func(context.Context, string, string, io.Reader) (string, error) { return "", boom }

	_, err := NewUserService(users, nil, nil).UploadAvatar(context.Background(), bob, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = NewUserService(users, ok, nil).UploadAvatar(context.Background(), bob, strings.NewReader("x"), "a.txt", "text/plain")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewUserService(users, ok, nil).UploadAvatar(context.Background(), &entity.User{ID: 1}, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrInactiveUser)

	_, err = NewUserService(users, failing, nil).UploadAvatar(context.Background(), bob, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, boom)
}
