package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

// newTestStore connects to TEST_DATABASE_URL, which must point at a migrated database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, dsn, 4, 1, time.Minute)
	require.NoError(t, err)
	s := NewStore(pool, helpers.DiscardLogger(), 7)
	t.Cleanup(s.Close)
	return s
}

func TestStoreUserAndTradeLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &entity.User{
		Name:         "Integration",
		Email:        "integration-" + time.Now().Format("150405.000000") + "@example.com",
		PasswordHash: "x",
		Role:         entity.RoleStudent,
		Status:       entity.UserStatusPending,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	t.Cleanup(func() { _, _ = s.DeleteUser(context.Background(), u.ID) })

	dup := *u
	dup.ID = ""
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), repository.ErrDuplicateEmail)

	upper := *u
	upper.ID = ""
	upper.Email = strings.ToUpper(u.Email)
	assert.ErrorIs(t, s.CreateUser(ctx, &upper), repository.ErrDuplicateEmail)

	status := entity.UserStatusApproved
	updated, err := s.UpdateUser(ctx, u.ID, entity.UserPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusApproved, updated.Status)

	chart := "data:image/png;base64,AAAA"
	tr := &entity.Trade{UserID: u.ID, Asset: "EURUSD", Direction: entity.DirectionLong, Entry: 1.1, SL: 1.09, ChartBeforeURL: &chart}
	require.NoError(t, s.CreateTrade(ctx, tr))
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, entity.TradeStatusPending, tr.Status)
	assert.Equal(t, entity.DefaultDisplayUnit, tr.DisplayUnit)

	got, err := s.UpdateTrade(ctx, tr.ID, entity.TradePatch{"exit": 1.12, "strategy": "breakout"})
	require.NoError(t, err)
	require.NotNil(t, got.Exit)
	assert.InDelta(t, 1.12, *got.Exit, 1e-9)
	assert.False(t, got.UpdatedAt.Before(tr.UpdatedAt))

	list, err := s.ListTrades(ctx, entity.TradeFilter{OwnerID: u.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	n, err := s.CountTrades(ctx, entity.TradeFilter{OwnerID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.UpdateTrade(ctx, "missing", entity.TradePatch{"asset": "X"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.UpdateTrade(ctx, tr.ID, entity.TradePatch{})
	assert.ErrorIs(t, err, repository.ErrNoUpdatableFields)

	deleted, err := s.DeleteTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeleteTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.GetTrade(ctx, tr.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreEmailCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	local := "Mixed-" + time.Now().Format("150405.000000")
	u := &entity.User{
		Name:         "Mixed Case",
		Email:        "  " + local + "@Example.COM ",
		PasswordHash: "x",
		Role:         entity.RoleAdmin,
		Status:       entity.UserStatusApproved,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	t.Cleanup(func() { _, _ = s.DeleteUser(context.Background(), u.ID) })
	assert.Equal(t, strings.ToLower(local)+"@example.com", u.Email)

	stored, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)

	found, err := s.FindUserByEmail(ctx, strings.ToUpper(local)+"@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestStoreStats(t *testing.T) {
	s := newTestStore(t)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postgres", st.Driver)
	assert.Equal(t, 7, st.RetentionDays)
	assert.GreaterOrEqual(t, st.Trades, st.TradesWithCharts)
}
