package memory

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedStore() (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.now)), clock
}

func TestUserCRUD(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	u := &entity.User{Name: "Ann", Email: "ann@example.com", Role: entity.RoleStudent, Status: entity.UserStatusPending}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, clock.t, u.CreatedAt)

	err := s.CreateUser(ctx, &entity.User{Email: "ANN@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	mixed := &entity.User{Name: "Bo", Email: " Bo@Example.COM ", Role: entity.RoleCoach, Status: entity.UserStatusPending}
	require.NoError(t, s.CreateUser(ctx, mixed))
	assert.Equal(t, "bo@example.com", mixed.Email)
	stored, err := s.GetUser(ctx, mixed.ID)
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", stored.Email)

	found, err := s.FindUserByEmail(ctx, " Ann@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	clock.advance(time.Minute)
	approved := entity.UserStatusApproved
	updated, err := s.UpdateUser(ctx, u.ID, entity.UserPatch{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusApproved, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = s.UpdateUser(ctx, u.ID, entity.UserPatch{})
	assert.ErrorIs(t, err, repository.ErrNoUpdatableFields)
	_, err = s.UpdateUser(ctx, "missing", entity.UserPatch{Status: &approved})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ok, err := s.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	tr := &entity.Trade{UserID: "u1", Asset: "EURUSD", Direction: entity.DirectionLong, Entry: 1, SL: 0.9}
	require.NoError(t, s.CreateTrade(ctx, tr))

	got, err := s.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	got.Asset = "changed"
	tr.Asset = "changed too"

	again, err := s.GetTrade(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", again.Asset)
}

func TestTradeDefaultsAndPatch(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()
	tr := &entity.Trade{UserID: "u1", Asset: "EURUSD", Direction: entity.DirectionShort, Entry: 1.1, SL: 1.2}
	require.NoError(t, s.CreateTrade(ctx, tr))
	assert.Equal(t, entity.TradeStatusPending, tr.Status)
	assert.Equal(t, entity.DefaultDisplayUnit, tr.DisplayUnit)

	clock.advance(time.Hour)
	updated, err := s.UpdateTrade(ctx, tr.ID, entity.TradePatch{"exit": 1.05, "emotion": nil})
	require.NoError(t, err)
	require.NotNil(t, updated.Exit)
	assert.Equal(t, 1.05, *updated.Exit)
	assert.Nil(t, updated.Emotion)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, clock.t, updated.UpdatedAt)

	_, err = s.UpdateTrade(ctx, tr.ID, entity.TradePatch{})
	assert.ErrorIs(t, err, repository.ErrNoUpdatableFields)
	_, err = s.UpdateTrade(ctx, "missing", entity.TradePatch{"asset": "X"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListTradesPagesNewestFirst(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()
	for i := 0; i < 120; i++ {
		clock.advance(time.Minute)
		require.NoError(t, s.CreateTrade(ctx, &entity.Trade{
			ID: fmt.Sprintf("t-%03d", i), UserID: "u1", Asset: "EURUSD", Direction: entity.DirectionLong, Entry: 1, SL: 0.9,
		}))
	}
	require.NoError(t, s.CreateTrade(ctx, &entity.Trade{UserID: "u2", Asset: "GBPUSD", Direction: entity.DirectionLong, Entry: 1, SL: 0.9}))

	items, err := s.ListTrades(ctx, entity.TradeFilter{OwnerID: "u1", Limit: 50, Offset: 50})
	require.NoError(t, err)
	require.Len(t, items, 50)
	assert.Equal(t, "t-069", items[0].ID)
	assert.Equal(t, "t-020", items[49].ID)

	n, err := s.CountTrades(ctx, entity.TradeFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	tail, err := s.ListTrades(ctx, entity.TradeFilter{OwnerID: "u1", Limit: 50, Offset: 200})
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestClearExpiredCharts(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()
	chart := "data:image/png;base64,AAAA"

	old := &entity.Trade{UserID: "u1", Asset: "A", Direction: entity.DirectionLong, Entry: 1, SL: 0.9, ChartBeforeURL: &chart, ChartAfterURL: &chart}
	require.NoError(t, s.CreateTrade(ctx, old))
	clock.advance(2 * 24 * time.Hour)
	recent := &entity.Trade{UserID: "u1", Asset: "B", Direction: entity.DirectionLong, Entry: 1, SL: 0.9, ChartAfterURL: &chart}
	require.NoError(t, s.CreateTrade(ctx, recent))
	clock.advance(6 * 24 * time.Hour)

	n, err := s.ClearExpiredCharts(ctx, clock.t.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetTrade(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ChartBeforeURL)
	assert.Nil(t, got.ChartAfterURL)
	assert.Equal(t, clock.t, got.UpdatedAt)

	got, err = s.GetTrade(ctx, recent.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ChartAfterURL)
}

func TestStats(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	chart := "abcd"
	require.NoError(t, s.CreateUser(ctx, &entity.User{Email: "a@x.io", Role: entity.RoleAdmin, Status: entity.UserStatusApproved}))
	require.NoError(t, s.CreateUser(ctx, &entity.User{Email: "s@x.io", Role: entity.RoleStudent, Status: entity.UserStatusPending}))
	require.NoError(t, s.CreateTrade(ctx, &entity.Trade{UserID: "u", Asset: "A", Direction: entity.DirectionLong, ChartBeforeURL: &chart}))
	require.NoError(t, s.CreateTrade(ctx, &entity.Trade{UserID: "u", Asset: "B", Direction: entity.DirectionLong, Status: entity.TradeStatusReviewed}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", st.Driver)
	assert.Equal(t, 2, st.Users)
	assert.Equal(t, 1, st.UsersByRole["admin"])
	assert.Equal(t, 1, st.UsersByStatus["pending"])
	assert.Equal(t, 2, st.Trades)
	assert.Equal(t, 1, st.TradesPending)
	assert.Equal(t, 1, st.TradesReviewed)
	assert.Equal(t, 1, st.TradesWithCharts)
	assert.Equal(t, int64(4), st.ChartPayloadBytes)
	assert.NotNil(t, st.OldestChartAt)
	assert.True(t, st.ChartsSupported)
}

func TestSeedIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	opts := SeedOptions{Students: 3, TradesPerStudent: 10, PasswordCost: bcrypt.MinCost, Now: now}

	a, b := New(), New()
	require.NoError(t, Seed(a, opts))
	require.NoError(t, Seed(b, opts))
	ctx := context.Background()

	users, err := a.ListUsers(ctx, entity.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 6)

	admin, err := a.FindUserByEmail(ctx, SeedAdminEmail)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, admin.Role)
	assert.True(t, helpers.CompareHashAndPassword(admin.PasswordHash, SeedAdminPassword))

	ta, err := a.ListTrades(ctx, entity.TradeFilter{})
	require.NoError(t, err)
	tb, err := b.ListTrades(ctx, entity.TradeFilter{})
	require.NoError(t, err)
	require.Len(t, ta, 40)
	for i := range ta {
		assert.Equal(t, ta[i].ID, tb[i].ID)
		assert.Equal(t, ta[i].Entry, tb[i].Entry)
		assert.Equal(t, *ta[i].Exit, *tb[i].Exit)
	}

	for _, tr := range ta {
		want := (*tr.Exit - tr.Entry) / math.Abs(tr.Entry-tr.SL)
		assert.InDelta(t, want, *tr.ActualR, 0.006, tr.ID)
	}

	mine, err := a.ListTrades(ctx, entity.TradeFilter{OwnerID: SeedStudentID})
	require.NoError(t, err)
	assert.Len(t, mine, 10)
}
