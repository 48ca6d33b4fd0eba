package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/uptrade-api/internal/interface/http"
	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

type TradeModule struct {
	Handler   *handlers.TradeHandler
	JWT       *helpers.JWTManager
	RDB       *redis.Client
	KeyPrefix string
}

func NewTradeModule(h *handlers.TradeHandler, jwt *helpers.JWTManager, rdb *redis.Client, keyPrefix string) *TradeModule {
	return &TradeModule{Handler: h, JWT: jwt, RDB: rdb, KeyPrefix: keyPrefix}
}

func (m *TradeModule) Register(rg *gin.RouterGroup) {
	trades := rg.Group("/trades")
	trades.Use(
		middleware.BearerAuth(m.JWT),
		middleware.RateLimit(m.RDB, 300, time.Minute, middleware.KeyByUserID(m.KeyPrefix), nil),
	)
	{
		trades.GET("", m.Handler.List)
		trades.POST("", m.Handler.Create)
		trades.GET("/:id", m.Handler.Get)
		trades.PATCH("/:id", m.Handler.Update)
		trades.DELETE("/:id", m.Handler.Delete)
	}
}
