package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/config"
	"github.com/oksasatya/uptrade-api/internal/application"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/internal/retention"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	store       repository.Store
	redisClient *redis.Client

	jwtManager *helpers.JWTManager

	rabbitPub    *helpers.RabbitPublisher
	notifier     application.Notifier
	retentionSvc *retention.Service
	metricsReg   *prometheus.Registry
)

func SetConfig(c *config.Config)              { cfg = c }
func GetConfig() *config.Config               { return cfg }
func SetLogger(l *logrus.Logger)              { logger = l }
func GetLogger() *logrus.Logger               { return logger }
func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetStore(s repository.Store)             { store = s }
func GetStore() repository.Store              { return store }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetRetention(s *retention.Service)       { retentionSvc = s }
func GetRetention() *retention.Service        { return retentionSvc }
func SetMetrics(r *prometheus.Registry)       { metricsReg = r }
func GetMetrics() *prometheus.Registry        { return metricsReg }

func SetNotifier(n application.Notifier) { notifier = n }

// GetNotifier falls back to a no-op so services never see nil.
func GetNotifier() application.Notifier {
	if notifier == nil {
		return application.NoopNotifier{}
	}
	return notifier
}
