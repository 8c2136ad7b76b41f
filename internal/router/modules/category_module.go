package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/fastbb/internal/interface/http"
	"github.com/oksasatya/fastbb/internal/interface/middleware"
)

type CategoryModule struct {
	Handler  *handlers.CategoryHandler
	Resolver middleware.UserResolver
	Redis    *redis.Client
}

func NewCategoryModule(h *handlers.CategoryHandler, resolver middleware.UserResolver, rdb *redis.Client) *CategoryModule {
	return &CategoryModule{Handler: h, Resolver: resolver, Redis: rdb}
}

func (m *CategoryModule) Register(rg *gin.RouterGroup) {
	rg.GET("/categories", m.Handler.List)
	rg.POST("/categories",
		middleware.Auth(m.Resolver),
		middleware.RequireActive(),
		middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil),
		m.Handler.Create,
	)
}
