package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fastbb/internal/application"
	"github.com/oksasatya/fastbb/internal/container"
	pginfra "github.com/oksasatya/fastbb/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/fastbb/internal/interface/http"
	"github.com/oksasatya/fastbb/internal/router/modules"
	"github.com/oksasatya/fastbb/pkg/helpers"
)

// Deps are the services the HTTP modules are built from.
type Deps struct {
	Auth       *application.AuthService
	Users      *application.UserService
	Categories *application.CategoryService
	Posts      *application.PostService

	Redis        *redis.Client
	Logger       *logrus.Logger
	DebugMetrics bool
}

// BuildDeps wires Postgres repositories and optional clients from the container.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	rdb := container.GetRedis()

	users := pginfra.NewUserRepository(pool)
	categories := pginfra.NewCategoryRepository(pool)
	posts := pginfra.NewPostRepository(pool)

	// keep the interface nil when RabbitMQ is not configured
	var pub application.JobPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	mail := application.MailSettings{Enabled: cfg.MailSendEnabled, AppName: cfg.AppName, ForumURL: cfg.ForumURL}

	authSvc := application.NewAuthService(users, helpers.NewBcryptHasher(cfg.BcryptCost), container.GetTokens(), pub, mail, logger)
	categorySvc := application.NewCategoryService(categories, rdb, logger)
	postSvc := application.NewPostService(posts, users, categorySvc, container.GetES(), cfg.ESPostsIndex, pub, mail, logger)
	userSvc := application.NewUserService(users, application.GCSUploader(container.GetGCS(), cfg.GCSBucket), logger)

	return Deps{
		Auth:         authSvc,
		Users:        userSvc,
		Categories:   categorySvc,
		Posts:        postSvc,
		Redis:        rdb,
		Logger:       logger,
		DebugMetrics: cfg.DebugMetricsEnabled,
	}
}

// InitModules registers every feature module with the registry.
// Call once during start-up.
func InitModules(r *Registry, d Deps) {
	r.Add(modules.NewUserModule(
		handlers.NewAuthHandler(d.Auth, d.Logger),
		handlers.NewUserHandler(d.Users, d.Logger),
		d.Auth, d.Redis,
	))
	r.Add(modules.NewCategoryModule(handlers.NewCategoryHandler(d.Categories, d.Logger), d.Auth, d.Redis))
	r.Add(modules.NewPostModule(handlers.NewPostHandler(d.Posts, d.Logger), d.Auth, d.Redis))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(d.Redis))
	}
}
