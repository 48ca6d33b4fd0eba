package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/uptrade-api/internal/interface/http"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// UserModule routes account administration. Role checks live in the service.
type UserModule struct {
	Handler   *handlers.UserHandler
	JWT       *helpers.JWTManager
	RDB       *redis.Client
	KeyPrefix string
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, rdb *redis.Client, keyPrefix string) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, RDB: rdb, KeyPrefix: keyPrefix}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(
		middleware.BearerAuth(m.JWT),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(m.KeyPrefix), nil),
	)
	{
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PATCH("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
}
