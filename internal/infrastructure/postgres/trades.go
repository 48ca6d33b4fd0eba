package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
)

const tradeBaseColumns = `id, user_id, asset, direction, entry, sl, tp, "exit", status, strategy, emotion,
	planned_r, actual_r, COALESCE(display_unit, 'pips'), created_at, updated_at`

// tradeProjection is the select list for one schema snapshot.
type tradeProjection struct {
	optional []entity.TradeField
}

func newTradeProjection(cols columnSet) tradeProjection {
	return tradeProjection{optional: cols.optionalFields()}
}

func (p tradeProjection) sql() string {
	var b strings.Builder
	b.WriteString(tradeBaseColumns)
	for _, f := range p.optional {
		b.WriteString(", ")
		b.WriteString(f.Column)
	}
	return b.String()
}

func (p tradeProjection) scan(row rowScanner) (*entity.Trade, error) {
	t := &entity.Trade{}
	dest := []any{
		&t.ID, &t.UserID, &t.Asset, (*string)(&t.Direction), &t.Entry, &t.SL, &t.TP, &t.Exit,
		(*string)(&t.Status), &t.Strategy, &t.Emotion, &t.PlannedR, &t.ActualR, &t.DisplayUnit,
		&t.CreatedAt, &t.UpdatedAt,
	}
	for _, f := range p.optional {
		dest = append(dest, optionalTarget(t, f.Name))
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return t, nil
}

func optionalTarget(t *entity.Trade, name string) any {
	switch name {
	case "chart_before_url":
		return &t.ChartBeforeURL
	case "chart_after_url":
		return &t.ChartAfterURL
	case "reviewed_by":
		return &t.ReviewedBy
	case "feedback":
		return &t.Feedback
	}
	var discard *string
	return &discard
}

func tradeWhere(f entity.TradeFilter) *whereBuilder {
	w := &whereBuilder{}
	if f.OwnerID != "" {
		w.add("user_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	return w
}

func (s *Store) ListTrades(ctx context.Context, f entity.TradeFilter) ([]*entity.Trade, error) {
	out := make([]*entity.Trade, 0)
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return s.withColumnFallback(ctx, conn, func(cols columnSet) error {
			out = out[:0]
			proj := newTradeProjection(cols)
			w := tradeWhere(f)
			q := "SELECT " + proj.sql() + " FROM trades" + w.sql() + " ORDER BY created_at DESC, id DESC"
			q += w.page(f.Limit, f.Offset)
			rows, err := conn.Query(ctx, q, w.args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				t, err := proj.scan(rows)
				if err != nil {
					return err
				}
				out = append(out, t)
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	return out, nil
}

func (s *Store) CountTrades(ctx context.Context, f entity.TradeFilter) (int, error) {
	var n int
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		w := tradeWhere(f)
		return conn.QueryRow(ctx, "SELECT COUNT(*) FROM trades"+w.sql(), w.args...).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return n, nil
}

func (s *Store) GetTrade(ctx context.Context, id string) (*entity.Trade, error) {
	var t *entity.Trade
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return s.withColumnFallback(ctx, conn, func(cols columnSet) error {
			proj := newTradeProjection(cols)
			var err error
			t, err = proj.scan(conn.QueryRow(ctx, "SELECT "+proj.sql()+" FROM trades WHERE id = $1", id))
			return err
		})
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return t, nil
}

// CreateTrade inserts every field the live schema supports. Optional columns the schema
// lacks are dropped from the insert.
func (s *Store) CreateTrade(ctx context.Context, t *entity.Trade) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DisplayUnit == "" {
		t.DisplayUnit = entity.DefaultDisplayUnit
	}
	if t.Status == "" {
		t.Status = entity.TradeStatusPending
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	var created *entity.Trade
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return s.withColumnFallback(ctx, conn, func(cols columnSet) error {
			columns := []string{"id", "user_id", "created_at", "updated_at"}
			args := []any{t.ID, t.UserID, t.CreatedAt, t.UpdatedAt}
			for _, f := range entity.TradeFields {
				if !cols.supports(f) {
					if v, _ := entity.TradeValue(t, f.Name).(*string); v != nil && s.logger != nil {
						s.logger.WithField("field", f.Name).Warn("trades schema lacks column; value not stored")
					}
					continue
				}
				columns = append(columns, f.Column)
				args = append(args, entity.TradeValue(t, f.Name))
			}
			placeholders := make([]string, len(args))
			for i := range args {
				placeholders[i] = "$" + strconv.Itoa(i+1)
			}
			proj := newTradeProjection(cols)
			q := fmt.Sprintf("INSERT INTO trades (%s) VALUES (%s) RETURNING %s",
				strings.Join(columns, ", "), strings.Join(placeholders, ", "), proj.sql())
			var err error
			created, err = proj.scan(conn.QueryRow(ctx, q, args...))
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	*t = *created
	return nil
}

// UpdateTrade writes the patch fields the live schema supports. A patch that ends up
// with nothing to write yields ErrNoUpdatableFields.
func (s *Store) UpdateTrade(ctx context.Context, id string, p entity.TradePatch) (*entity.Trade, error) {
	if len(p) == 0 {
		return nil, repository.ErrNoUpdatableFields
	}
	var updated *entity.Trade
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		updated, err = s.updateTrade(ctx, conn, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// tradeConn is the part of a pooled connection trade writes use.
type tradeConn interface {
	querier
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) updateTrade(ctx context.Context, conn tradeConn, id string, p entity.TradePatch) (*entity.Trade, error) {
	var updated *entity.Trade
	err := s.withColumnFallback(ctx, conn, func(cols columnSet) error {
		var sets []string
		var args []any
		for _, name := range p.Names() {
			f, _ := entity.LookupTradeField(name)
			if !cols.supports(f) {
				continue
			}
			args = append(args, p[name])
			sets = append(sets, f.Column+" = $"+strconv.Itoa(len(args)))
		}
		if len(sets) == 0 {
			return fmt.Errorf("%w: %w", repository.ErrNoUpdatableFields, repository.ErrSchemaIncompatible)
		}
		args = append(args, id)
		proj := newTradeProjection(cols)
		q := fmt.Sprintf("UPDATE trades SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s",
			strings.Join(sets, ", "), len(args), proj.sql())
		var err error
		updated, err = proj.scan(conn.QueryRow(ctx, q, args...))
		return err
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, repository.ErrNotFound
	case errors.Is(err, repository.ErrNoUpdatableFields):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("update trade: %w", err)
	}
	return updated, nil
}

func (s *Store) DeleteTrade(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, "DELETE FROM trades WHERE id = $1", id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete trade: %w", err)
	}
	return affected > 0, nil
}

// ClearExpiredCharts nulls both chart columns on trades created before cutoff. It is a
// no-op when the schema has no chart columns.
func (s *Store) ClearExpiredCharts(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		cols, err := s.schema.tradeColumns(ctx, conn)
		if err != nil {
			return err
		}
		if !cols.hasCharts() {
			return nil
		}
		tag, err := conn.Exec(ctx, `
			UPDATE trades
			SET chart_before_url = NULL, chart_after_url = NULL, updated_at = NOW()
			WHERE created_at < $1 AND (chart_before_url IS NOT NULL OR chart_after_url IS NOT NULL)`, cutoff)
		if err != nil {
			if _, ok := undefinedColumn(err); ok {
				s.schema.forget("")
				return nil
			}
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear expired charts: %w", err)
	}
	return affected, nil
}
