package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/domain/entity"
	"github.com/oksasatya/fastbb/pkg/response"
)

const (
	CtxUserKey   = "currentUser"
	CtxUserIDKey = "userID"
)

// UserResolver turns a bearer token into the user it was issued for.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth resolves the bearer token and stores the user under CtxUserKey and
// its id under CtxUserIDKey. It does not look at the active flag.
func Auth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "not authenticated", nil)
			return
		}
		u, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, application.ErrUnauthorized) {
				response.Abort(c, http.StatusUnauthorized, "could not validate credentials", nil)
				return
			}
			response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, strconv.FormatInt(u.ID, 10))
		c.Next()
	}
}

// RequireActive rejects resolved users whose account is deactivated.
// Must run after Auth.
func RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := application.RequireActive(CurrentUser(c)); err != nil {
			msg := "not authenticated"
			if errors.Is(err, application.ErrInactiveUser) {
				msg = "inactive user"
			}
			response.Abort(c, http.StatusUnauthorized, msg, nil)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by Auth, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}
