package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/fastbb/internal/interface/http"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
)

// UserModule wires registration, login and user profile routes.
// Public: POST /users, POST /users/login, GET /users, GET /users/:username
// Protected: GET /users/me, PUT /users/me/avatar
type UserModule struct {
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Resolver middleware.UserResolver
	Redis    *redis.Client
}

func NewUserModule(auth *handlers.AuthHandler, users *handlers.UserHandler, resolver middleware.UserResolver, rdb *redis.Client) *UserModule {
	return &UserModule{Auth: auth, Users: users, Resolver: resolver, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	rg.POST("/users", registerLimiter, m.Auth.Register)
	rg.POST("/users/login", loginLimiter, m.Auth.Login)
	rg.GET("/users", m.Users.List)

	me := rg.Group("/users/me")
	me.Use(
		middleware.Auth(m.Resolver),
		middleware.RequireActive(),
		middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		me.GET("", m.Auth.Me)
		me.PUT("/avatar", m.Users.UploadAvatar)
	}

	rg.GET("/users/:username", m.Users.Get)
}
