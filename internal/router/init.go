package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/config"
	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/container"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	handlers "github.com/oksasatya/uptrade-api/internal/interface/http"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/internal/router/modules"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// Deps is everything the HTTP modules need. Retention and Metrics may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Store     repository.Store
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	Notifier  application.Notifier
	Retention application.RetentionRunner
	Metrics   prometheus.Gatherer
}

// DepsFromContainer collects the singletons set up in main.
func DepsFromContainer() Deps {
	d := Deps{
		Config:   container.GetConfig(),
		Logger:   container.GetLogger(),
		Store:    container.GetStore(),
		JWT:      container.GetJWT(),
		Redis:    container.GetRedis(),
		Notifier: container.GetNotifier(),
	}
	if svc := container.GetRetention(); svc != nil {
		d.Retention = svc
	}
	if reg := container.GetMetrics(); reg != nil {
		d.Metrics = reg
	}
	return d
}

// NewEngine builds the gin engine with the global middleware chain.
func NewEngine(cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	return r
}

// InitModules builds services and handlers from d and registers every module.
// This function should be called once during application startup.
func InitModules(r *Registry, d Deps) {
	notifier := d.Notifier
	if notifier == nil {
		notifier = application.NoopNotifier{}
	}
	prefix := d.Config.AppName

	authSvc := application.NewAuthService(d.Store, d.JWT, notifier, d.Logger)
	userSvc := application.NewUserService(d.Store, notifier, d.Logger)
	tradeSvc := application.NewTradeService(d.Store, d.Logger)
	adminSvc := application.NewAdminService(d.Store, d.Retention, d.Logger)

	r.Add(
		modules.NewHealthModule(handlers.NewHealthHandler(d.Store, d.Logger)),
		modules.NewAuthModule(handlers.NewAuthHandler(authSvc, d.Logger), d.JWT, d.Redis, prefix),
		modules.NewUserModule(handlers.NewUserHandler(userSvc, d.Logger), d.JWT, d.Redis, prefix),
		modules.NewTradeModule(handlers.NewTradeHandler(tradeSvc, d.Logger), d.JWT, d.Redis, prefix),
		modules.NewAdminModule(handlers.NewAdminHandler(adminSvc, d.Logger), d.JWT),
	)
	if d.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(d.Metrics, d.Redis, prefix))
	}
}
