package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/uptrade-api/internal/interface/http"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// AuthModule routes:
// Public: POST /api/auth/register, POST /api/auth/login
// Protected: GET /api/auth/me
type AuthModule struct {
	Handler   *handlers.AuthHandler
	JWT       *helpers.JWTManager
	RDB       *redis.Client
	KeyPrefix string
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, rdb *redis.Client, keyPrefix string) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, RDB: rdb, KeyPrefix: keyPrefix}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public with per-IP limits
	registerLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(m.KeyPrefix), nil)
	loginLimiter := middleware.RateLimit(m.RDB, 20, time.Minute, middleware.KeyByIPAndPath(m.KeyPrefix), nil)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/auth")
	auth.Use(middleware.BearerAuth(m.JWT))
	{
		auth.GET("/me", m.Handler.Me)
	}
}
