package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
)

// Store keeps users and trades in ordered slices. Handlers run concurrently, so every
// access goes through mu and callers only ever see copies.
type Store struct {
	mu            sync.RWMutex
	users         []*entity.User
	trades        []*entity.Trade
	retentionDays int
	now           func() time.Time
}

var _ repository.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRetentionDays sets the value reported by Stats.
func WithRetentionDays(days int) Option {
	return func(s *Store) { s.retentionDays = days }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		retentionDays: 7,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Driver() string { return "memory" }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() {}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func cloneTrade(t *entity.Trade) *entity.Trade {
	c := *t
	return &c
}

// newestFirst orders by created_at DESC, id DESC, matching the relational store.
func newestFirst(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return idA > idB
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Users

func (s *Store) ListUsers(_ context.Context, f entity.UserFilter) ([]*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		if f.Match(u) {
			out = append(out, cloneUser(u))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) CountUsers(_ context.Context, f entity.UserFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if f.Match(u) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndex(id); i >= 0 {
		return cloneUser(s.users[i]), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u *entity.User) error {
	u.Email = entity.NormalizeEmail(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users = append(s.users, cloneUser(u))
	return nil
}

func (s *Store) UpdateUser(_ context.Context, id string, p entity.UserPatch) (*entity.User, error) {
	if p.Empty() {
		return nil, repository.ErrNoUpdatableFields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	u := cloneUser(s.users[i])
	p.Apply(u)
	u.UpdatedAt = s.now()
	s.users[i] = u
	return cloneUser(u), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return false, nil
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	return true, nil
}

func (s *Store) userIndex(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// Trades

func (s *Store) ListTrades(_ context.Context, f entity.TradeFilter) ([]*entity.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		if f.Match(t) {
			out = append(out, cloneTrade(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newestFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return page(out, f.Limit, f.Offset), nil
}

func (s *Store) CountTrades(_ context.Context, f entity.TradeFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.trades {
		if f.Match(t) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetTrade(_ context.Context, id string) (*entity.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.tradeIndex(id); i >= 0 {
		return cloneTrade(s.trades[i]), nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateTrade(_ context.Context, t *entity.Trade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DisplayUnit == "" {
		t.DisplayUnit = entity.DefaultDisplayUnit
	}
	if t.Status == "" {
		t.Status = entity.TradeStatusPending
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.trades = append(s.trades, cloneTrade(t))
	return nil
}

func (s *Store) UpdateTrade(_ context.Context, id string, p entity.TradePatch) (*entity.Trade, error) {
	if len(p) == 0 {
		return nil, repository.ErrNoUpdatableFields
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tradeIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	t := cloneTrade(s.trades[i])
	p.Apply(t)
	t.UpdatedAt = s.now()
	s.trades[i] = t
	return cloneTrade(t), nil
}

func (s *Store) DeleteTrade(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.tradeIndex(id)
	if i < 0 {
		return false, nil
	}
	s.trades = append(s.trades[:i], s.trades[i+1:]...)
	return true, nil
}

func (s *Store) ClearExpiredCharts(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := s.now()
	for i, t := range s.trades {
		if !t.CreatedAt.Before(cutoff) || !t.HasCharts() {
			continue
		}
		c := cloneTrade(t)
		c.ChartBeforeURL, c.ChartAfterURL = nil, nil
		c.UpdatedAt = now
		s.trades[i] = c
		n++
	}
	return n, nil
}

func (s *Store) tradeIndex(id string) int {
	for i, t := range s.trades {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) Stats(_ context.Context) (*entity.StorageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &entity.StorageStats{
		Driver:          s.Driver(),
		Users:           len(s.users),
		UsersByStatus:   map[string]int{},
		UsersByRole:     map[string]int{},
		Trades:          len(s.trades),
		RetentionDays:   s.retentionDays,
		ChartsSupported: true,
	}
	for _, u := range s.users {
		st.UsersByStatus[string(u.Status)]++
		st.UsersByRole[string(u.Role)]++
	}
	for _, t := range s.trades {
		switch t.Status {
		case entity.TradeStatusPending:
			st.TradesPending++
		case entity.TradeStatusReviewed:
			st.TradesReviewed++
		}
		if !t.HasCharts() {
			continue
		}
		st.TradesWithCharts++
		st.ChartPayloadBytes += t.ChartBytes()
		if st.OldestChartAt == nil || t.CreatedAt.Before(*st.OldestChartAt) {
			created := t.CreatedAt
			st.OldestChartAt = &created
		}
	}
	return st, nil
}
