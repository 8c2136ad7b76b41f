package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/fastbb/internal/interface/http"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
)

type PostModule struct {
	Handler  *handlers.PostHandler
	Resolver middleware.UserResolver
	Redis    *redis.Client
}

func NewPostModule(h *handlers.PostHandler, resolver middleware.UserResolver, rdb *redis.Client) *PostModule {
	return &PostModule{Handler: h, Resolver: resolver, Redis: rdb}
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	rg.POST("/posts",
		middleware.Auth(m.Resolver),
		middleware.RequireActive(),
		middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByUserID(), nil),
		m.Handler.Create,
	)
	rg.GET("/posts/category/:name", m.Handler.ListByCategory)
	rg.GET("/posts/user/:username", m.Handler.ListByUser)
	rg.GET("/posts/search", middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP(), nil), m.Handler.Search)
	rg.GET("/posts/:id", m.Handler.Thread)
}
