package repository

import (
	"context"
	"time"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
)

// UserRepository defines the user operations shared by every store variant.
type UserRepository interface {
	ListUsers(ctx context.Context, f entity.UserFilter) ([]*entity.User, error)
	CountUsers(ctx context.Context, f entity.UserFilter) (int, error)
	GetUser(ctx context.Context, id string) (*entity.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	// CreateUser assigns ID and timestamps on u. Returns ErrDuplicateEmail on conflict.
	CreateUser(ctx context.Context, u *entity.User) error
	// UpdateUser merges p and always stamps updated_at.
	UpdateUser(ctx context.Context, id string, p entity.UserPatch) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// TradeRepository defines the trade operations shared by every store variant.
type TradeRepository interface {
	ListTrades(ctx context.Context, f entity.TradeFilter) ([]*entity.Trade, error)
	CountTrades(ctx context.Context, f entity.TradeFilter) (int, error)
	GetTrade(ctx context.Context, id string) (*entity.Trade, error)
	// CreateTrade assigns ID and timestamps on t.
	CreateTrade(ctx context.Context, t *entity.Trade) error
	UpdateTrade(ctx context.Context, id string, p entity.TradePatch) (*entity.Trade, error)
	DeleteTrade(ctx context.Context, id string) (bool, error)
	// ClearExpiredCharts nulls both chart fields on trades created before cutoff.
	ClearExpiredCharts(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the record store selected once at startup.
type Store interface {
	UserRepository
	TradeRepository
	Driver() string
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*entity.StorageStats, error)
	Close()
}
