package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/uptrade-api/internal/interface/middleware"
)

// DebugModule exposes expvar and Prometheus metrics, rate-limited per IP with
// private networks exempt.
type DebugModule struct {
	Gatherer  prometheus.Gatherer
	RDB       *redis.Client
	KeyPrefix string
}

func NewDebugModule(g prometheus.Gatherer, rdb *redis.Client, keyPrefix string) *DebugModule {
	return &DebugModule{Gatherer: g, RDB: rdb, KeyPrefix: keyPrefix}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIPAndPath(m.KeyPrefix), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	if m.Gatherer != nil {
		rg.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}
}
